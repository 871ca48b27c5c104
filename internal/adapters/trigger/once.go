package trigger

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// RunFunc performs one pipeline run
type RunFunc func(ctx context.Context) error

// OnceTrigger performs a single run and then reports done
type OnceTrigger struct {
	run    RunFunc
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewOnceTrigger creates a new OnceTrigger
func NewOnceTrigger(run RunFunc, logger *zap.Logger) *OnceTrigger {
	return &OnceTrigger{
		run:    run,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the run in the background
func (t *OnceTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return errors.New("trigger already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	go func() {
		defer close(t.done)
		err := t.run(ctx)
		if err != nil {
			t.logger.Error("Run failed", zap.Error(err))
		}
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
	}()
	return nil
}

// Stop cancels the run and waits for it
func (t *OnceTrigger) Stop() error {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-t.done
	return nil
}

// Done is closed when the run has returned
func (t *OnceTrigger) Done() <-chan struct{} {
	return t.done
}

// Err returns the run's error once Done is closed
func (t *OnceTrigger) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
