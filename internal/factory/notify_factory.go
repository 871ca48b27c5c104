package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/adapters/notify"
	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
)

// NotifierFactory creates the run notifier
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier returns nil when notifications are disabled
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	ec := f.cfg.GetEmailNotify()
	if !ec.Enabled {
		return nil, nil
	}
	n, err := notify.NewEmailNotifier(ec.Address, ec.Username, ec.Password, ec.From, ec.To, f.logger)
	if err != nil {
		return nil, err
	}
	return n, nil
}
