package ble

import (
	"context"
	"strings"
	"sync"

	"github.com/nerrad567/govee-ble-bridge/internal/device"
)

// State is the coordinator's scan lifecycle state.
type State int

// Coordinator states. Transitions: Idle -> Scanning (Start), Scanning ->
// Paused (Pause, around a command transaction), Paused -> Scanning (Resume),
// any -> Idle (Stop).
const (
	StateIdle State = iota
	StateScanning
	StatePaused
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Listener receives discovery notifications. Both methods are invoked from
// the scan goroutine; implementations should hand off work rather than
// block.
type Listener interface {
	// OnNewDevice fires once per address, on first discovery. It is
	// always followed by an OnStateUpdate for the same record.
	OnNewDevice(rec device.Record)

	// OnStateUpdate fires when a device is first seen and whenever its
	// manufacturer data changes.
	OnStateUpdate(rec device.Record)
}

// noopListener is a listener that does nothing.
type noopListener struct{}

func (noopListener) OnNewDevice(device.Record)   {}
func (noopListener) OnStateUpdate(device.Record) {}

// Logger defines the logging interface used by the Coordinator.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Coordinator owns the scan session lifecycle. It drives passive discovery,
// applies the allow-list filter, feeds observations into the device
// registry, and raises listener notifications. Command transactions must not
// overlap a scan session on the same adapter, so callers pause the
// coordinator before transmitting and resume it afterwards.
//
// All public methods are thread-safe.
type Coordinator struct {
	radio    Radio
	registry *device.Registry
	allow    map[string]struct{}

	mu         sync.Mutex
	state      State
	cancelScan context.CancelFunc
	scanDone   chan struct{}

	listener Listener
	logger   Logger
}

// NewCoordinator creates a coordinator over the given radio and registry.
// allowList restricts discovery to the given addresses when non-empty;
// entries are matched case-insensitively.
func NewCoordinator(radio Radio, registry *device.Registry, allowList []string) *Coordinator {
	allow := make(map[string]struct{}, len(allowList))
	for _, addr := range allowList {
		allow[strings.ToUpper(addr)] = struct{}{}
	}
	return &Coordinator{
		radio:    radio,
		registry: registry,
		allow:    allow,
		state:    StateIdle,
		listener: noopListener{},
		logger:   noopLogger{},
	}
}

// SetListener sets the discovery notification listener.
// Must be called before Start.
func (c *Coordinator) SetListener(l Listener) {
	c.listener = l
}

// SetLogger sets the logger for the coordinator.
func (c *Coordinator) SetLogger(logger Logger) {
	c.logger = logger
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a scan session. Returns ErrDiscoveryBusy if a session
// already exists (Scanning or Paused).
//
// The session runs until Stop, or until the given context is cancelled.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrDiscoveryBusy
	}

	c.startSessionLocked(ctx)
	c.logger.Info("discovery started", "allow_list_size", len(c.allow))
	return nil
}

// startSessionLocked launches a fresh scan goroutine. Caller holds c.mu.
func (c *Coordinator) startSessionLocked(ctx context.Context) {
	scanCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.state = StateScanning
	c.cancelScan = cancel
	c.scanDone = done

	go func() {
		defer close(done)
		err := c.radio.Scan(scanCtx, c.handleAdvertisement)
		if err == nil || scanCtx.Err() != nil {
			return
		}
		c.logger.Error("scan session ended with error", "error", err)

		// The radio failed while the session was still wanted. Return to
		// idle so a later Start can retry, unless another session has
		// already replaced this one.
		c.mu.Lock()
		if c.state == StateScanning && c.scanDone == done {
			c.state = StateIdle
			c.cancelScan = nil
			c.scanDone = nil
		}
		c.mu.Unlock()
	}()
}

// Pause stops the active scan session ahead of a command transaction and
// waits for it to wind down. A no-op unless currently Scanning.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	if c.state != StateScanning {
		c.mu.Unlock()
		return
	}
	c.state = StatePaused
	cancel, done := c.cancelScan, c.scanDone
	c.mu.Unlock()

	cancel()
	<-done
	c.logger.Debug("discovery paused")
}

// Resume starts a fresh scan session after a command transaction set has
// completed. A no-op unless currently Paused.
func (c *Coordinator) Resume(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused {
		return
	}
	c.startSessionLocked(ctx)
	c.logger.Debug("discovery resumed")
}

// Stop ends the scan session and returns the coordinator to Idle.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancelScan, c.scanDone
	c.state = StateIdle
	c.cancelScan = nil
	c.scanDone = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	c.logger.Info("discovery stopped")
}

// handleAdvertisement processes one scan observation. Runs on the scan
// goroutine.
func (c *Coordinator) handleAdvertisement(adv Advertisement) {
	if len(adv.ManufacturerData) == 0 {
		return
	}

	addr := strings.ToUpper(adv.Address)
	if len(c.allow) > 0 {
		if _, ok := c.allow[addr]; !ok {
			return
		}
	}

	rec, isNew, changed := c.registry.Upsert(addr, adv.Name, adv.ManufacturerData)
	switch {
	case isNew:
		c.listener.OnNewDevice(rec)
		c.listener.OnStateUpdate(rec)
	case changed:
		c.listener.OnStateUpdate(rec)
	}
}
