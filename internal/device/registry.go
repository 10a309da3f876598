package device

import (
	"bytes"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Registry is the in-memory catalogue of discovered Govee devices, keyed by
// canonical MAC address. Devices are added or updated as advertisements
// arrive and are never removed; a light that goes out of range keeps its
// last observed record.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	records map[string]Record // keyed by canonical address
	byID    map[string]string // external ID -> canonical address
	logger  Logger
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]Record),
		byID:    make(map[string]string),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Upsert records an advertisement observation.
//
// Returns the current record plus two flags: isNew reports whether the
// address had not been seen before, and changed reports whether the
// manufacturer data differs byte-for-byte from the previous observation.
// changed is false for new devices; callers that publish on both events
// should check isNew first.
//
// An empty name never overwrites a previously learned one, since Govee
// lights alternate between named and nameless advertisement frames.
func (r *Registry) Upsert(address, name string, manufacturerData []byte) (Record, bool, bool) {
	addr := canonicalAddress(address)

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[addr]
	if !ok {
		rec := Record{
			ExternalID:       ExternalID(addr),
			Address:          addr,
			Name:             name,
			Model:            ModelFromName(name),
			ManufacturerData: bytes.Clone(manufacturerData),
		}
		r.records[addr] = rec
		r.byID[rec.ExternalID] = addr
		r.logger.Info("device discovered",
			"id", rec.ExternalID, "name", rec.Name, "model", rec.Model)
		return rec, true, false
	}

	changed := !bytes.Equal(existing.ManufacturerData, manufacturerData)
	if changed {
		existing.ManufacturerData = bytes.Clone(manufacturerData)
		r.logger.Debug("device state changed", "id", existing.ExternalID)
	}
	if name != "" && name != existing.Name {
		existing.Name = name
		existing.Model = ModelFromName(name)
	}
	r.records[addr] = existing

	return existing, false, changed
}

// Get retrieves a record by external ID.
// Returns ErrUnknownDevice when the ID has never been observed.
func (r *Registry) Get(externalID string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addr, ok := r.byID[externalID]
	if !ok {
		return Record{}, ErrUnknownDevice
	}
	rec := r.records[addr]
	rec.ManufacturerData = bytes.Clone(rec.ManufacturerData)
	return rec, nil
}

// List returns all known records in unspecified order.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		rec.ManufacturerData = bytes.Clone(rec.ManufacturerData)
		records = append(records, rec)
	}
	return records
}

// Count returns the number of known devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
