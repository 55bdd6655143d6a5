package hotreload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Reloadable is a component that can rebuild its state from disk, such as
// the server's rate table.
type Reloadable interface {
	Reload(ctx context.Context) error
	Name() string
}

// Listener is notified after a reload round completes. The error is nil when
// every reloadable succeeded.
type Listener func(ctx context.Context, events []Event, err error)

// Coordinator debounces file events and drives registered reloadables.
type Coordinator struct {
	watcher      *Watcher
	reloadables  map[string]Reloadable
	listeners    map[string]Listener
	eventChan    chan Event
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	debounceTime time.Duration
	wg           sync.WaitGroup
	isRunning    bool
}

// NewCoordinator creates a new reload coordinator
func NewCoordinator(watcher *Watcher) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		watcher:      watcher,
		reloadables:  make(map[string]Reloadable),
		listeners:    make(map[string]Listener),
		eventChan:    make(chan Event, 100),
		ctx:          ctx,
		cancel:       cancel,
		debounceTime: 500 * time.Millisecond,
	}
}

// Register adds a reloadable component to the coordinator
func (c *Coordinator) Register(reloadable Reloadable) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := reloadable.Name()
	if _, exists := c.reloadables[name]; exists {
		return fmt.Errorf("reloadable %s already registered", name)
	}

	c.reloadables[name] = reloadable
	slog.Info("Registered reloadable component", "name", name)
	return nil
}

// Unregister removes a reloadable component from the coordinator
func (c *Coordinator) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.reloadables, name)
	slog.Info("Unregistered reloadable component", "name", name)
}

// AddListener registers a callback fired after each reload round.
func (c *Coordinator) AddListener(name string, listener Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.listeners[name]; exists {
		return fmt.Errorf("listener %s already exists", name)
	}

	c.listeners[name] = listener
	return nil
}

// RemoveListener removes a listener by name.
func (c *Coordinator) RemoveListener(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.listeners, name)
}

// Start begins the hot reload coordination
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return fmt.Errorf("coordinator already running")
	}
	c.isRunning = true
	c.mu.Unlock()

	c.watcher.Start()

	c.wg.Add(2)
	go c.processEvents()
	go c.coordinateReloads()

	slog.Info("Hot reload coordinator started")
	return nil
}

// Stop stops the hot reload coordination
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = false
	c.mu.Unlock()

	c.cancel()
	c.watcher.Stop()
	close(c.eventChan)
	c.wg.Wait()

	slog.Info("Hot reload coordinator stopped")
}

func (c *Coordinator) processEvents() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-c.watcher.Events():
			if !ok {
				return
			}
			select {
			case c.eventChan <- event:
			case <-c.ctx.Done():
				return
			}
		}
	}
}

// coordinateReloads batches bursts of events behind a debounce timer so a
// single save does not trigger several reloads.
func (c *Coordinator) coordinateReloads() {
	defer c.wg.Done()

	var (
		debounceTimer *time.Timer
		timerC        <-chan time.Time
		events        []Event
	)

	for {
		select {
		case <-c.ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-c.eventChan:
			if !ok {
				return
			}
			events = append(events, event)

			if debounceTimer == nil {
				debounceTimer = time.NewTimer(c.debounceTime)
				timerC = debounceTimer.C
			} else {
				debounceTimer.Reset(c.debounceTime)
			}

		case <-timerC:
			if len(events) > 0 {
				c.triggerReload(events)
				events = events[:0]
			}
			debounceTimer = nil
			timerC = nil
		}
	}
}

func (c *Coordinator) triggerReload(events []Event) {
	c.mu.RLock()
	reloadables := make([]Reloadable, 0, len(c.reloadables))
	for _, r := range c.reloadables {
		reloadables = append(reloadables, r)
	}
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.RUnlock()

	if len(reloadables) == 0 {
		return
	}

	slog.Info("Triggering hot reload", "events", len(events))
	for _, event := range events {
		slog.Debug("Reload triggered by", "path", event.Path, "operation", event.Op.String())
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(reloadables))

	for _, reloadable := range reloadables {
		wg.Add(1)
		go func(r Reloadable) {
			defer wg.Done()
			if err := r.Reload(c.ctx); err != nil {
				errCh <- fmt.Errorf("failed to reload %s: %w", r.Name(), err)
			} else {
				slog.Info("Successfully reloaded component", "name", r.Name())
			}
		}(reloadable)
	}

	wg.Wait()
	close(errCh)

	var reloadErr error
	for err := range errCh {
		slog.Error("Reload error", "error", err)
		if reloadErr == nil {
			reloadErr = err
		}
	}

	if reloadErr == nil {
		slog.Info("Hot reload completed successfully")
	}

	for _, listener := range listeners {
		listener(c.ctx, events, reloadErr)
	}
}

// SetDebounceTime sets the debounce time for reload events
func (c *Coordinator) SetDebounceTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounceTime = d
}

// IsRunning returns whether the coordinator is currently running
func (c *Coordinator) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}
