package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	applog "tutorbook/internal/log"
)

// Loop runs a task immediately and then on every tick until stopped.
type Loop struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
	logger   *applog.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewLoop(name string, interval time.Duration, task func(ctx context.Context) error, logger *applog.Logger) *Loop {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Loop{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// Start begins the loop. Returns an error if already running.
func (l *Loop) Start(ctx context.Context) error {
	if l.interval <= 0 {
		return fmt.Errorf("%s loop: interval must be positive", l.name)
	}

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("%s loop is already running", l.name)
	}
	l.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	l.stopCh, l.doneCh = stopCh, doneCh
	l.mu.Unlock()

	go l.run(ctx, stopCh, doneCh)

	l.logger.InfoContext(ctx, "Loop started", "loop", l.name, "interval", l.interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	stopCh, doneCh := l.stopCh, l.doneCh
	l.running = false
	l.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		l.logger.InfoContext(ctx, "Loop stopped gracefully", "loop", l.name)
		return nil
	case <-ctx.Done():
		l.logger.WarnContext(ctx, "Loop stop timed out", "loop", l.name)
		return ctx.Err()
	}
}

func (l *Loop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.tick(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	if err := l.task(ctx); err != nil {
		l.logger.ErrorContext(ctx, "Loop task failed", "loop", l.name, applog.FieldError, err)
	}
}
