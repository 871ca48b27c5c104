package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/adapters/trigger"
	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/ports"
)

// TriggerFactory creates the trigger that drives pipeline runs
type TriggerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTriggerFactory creates a new trigger factory
func NewTriggerFactory(cfg *config.Config, logger *zap.Logger) *TriggerFactory {
	return &TriggerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTrigger returns a cron trigger when a schedule is configured and
// once is false, otherwise a single-run trigger.
func (f *TriggerFactory) CreateTrigger(run trigger.RunFunc, once bool) (ports.Trigger, error) {
	sc := f.cfg.GetSchedule()
	if once || sc.Cron == "" {
		return trigger.NewOnceTrigger(run, f.logger), nil
	}

	t, err := trigger.NewCronTrigger(sc.Cron, sc.RunOnStart, run, f.logger)
	if err != nil {
		return nil, err
	}
	return t, nil
}
