package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// janitor runs a cache's Cleanup on a ticker until stopped
type janitor struct {
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func startJanitor(freq time.Duration, logger *zap.Logger, cleanup func(context.Context) error) *janitor {
	j := &janitor{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	if freq <= 0 {
		close(j.done)
		return j
	}

	go func() {
		defer close(j.done)
		ticker := time.NewTicker(freq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := cleanup(context.Background()); err != nil {
					logger.Error("Failed to clean up cache", zap.Error(err))
				}
			case <-j.stopCh:
				return
			}
		}
	}()
	return j
}

// stop ends the loop and waits for it. Safe to call more than once.
func (j *janitor) stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
	<-j.done
}
