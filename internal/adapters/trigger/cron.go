package trigger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronTrigger runs the pipeline on a cron schedule. A firing that finds
// the previous run still going is skipped.
type CronTrigger struct {
	spec       string
	runOnStart bool
	run        RunFunc
	logger     *zap.Logger
	cron       *cron.Cron

	running  sync.Mutex
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewCronTrigger creates a trigger for spec, which accepts five-field
// expressions and descriptors such as "@daily" or "@every 6h".
func NewCronTrigger(spec string, runOnStart bool, run RunFunc, logger *zap.Logger) (*CronTrigger, error) {
	t := &CronTrigger{
		spec:       spec,
		runOnStart: runOnStart,
		run:        run,
		logger:     logger,
		done:       make(chan struct{}),
	}
	t.cron = cron.New(cron.WithLogger(cronLogger{logger.Sugar()}))
	if _, err := t.cron.AddFunc(spec, t.fire); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return t, nil
}

// Start starts the scheduler
func (t *CronTrigger) Start(ctx context.Context) error {
	if t.cancel != nil {
		return errors.New("trigger already started")
	}
	t.ctx, t.cancel = context.WithCancel(ctx)

	t.logger.Info("Scheduler starting", zap.String("schedule", t.spec))
	t.cron.Start()

	if t.runOnStart {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.fire()
		}()
	}
	return nil
}

// Stop halts the scheduler, cancels a run in progress and waits for it
func (t *CronTrigger) Stop() error {
	if t.cancel == nil {
		return nil
	}
	t.stopOnce.Do(func() {
		t.cancel()
		<-t.cron.Stop().Done()
		t.wg.Wait()
		close(t.done)
		t.logger.Info("Scheduler stopped")
	})
	return nil
}

// Done is closed after Stop
func (t *CronTrigger) Done() <-chan struct{} {
	return t.done
}

// Err is always nil; scheduled failures are logged and the next firing retries
func (t *CronTrigger) Err() error {
	return nil
}

func (t *CronTrigger) fire() {
	if !t.running.TryLock() {
		t.logger.Warn("Previous run still in progress, skipping")
		return
	}
	defer t.running.Unlock()

	if t.ctx.Err() != nil {
		return
	}
	if err := t.run(t.ctx); err != nil {
		t.logger.Error("Scheduled run failed", zap.Error(err))
	}
}

// cronLogger routes the scheduler's own messages to zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
