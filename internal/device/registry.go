package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voicelink/voicelink-core/internal/capability"
)

// Logger defines the logging interface used by the Registry.
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

// Registry provides device management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups,
// keyed by owner and device ID.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by cache-invalidating CRUD operations. Command translation hits the
// cache on every directive, so lookups must never touch the database
// on the hot path.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Device // Cached devices by username/id
	cacheMu sync.RWMutex       // Protects cache
	logger  Logger
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// cacheKey builds the composite cache key for a device.
func cacheKey(username, id string) string {
	return username + "/" + id
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	// Clear and rebuild cache with deep copies
	r.cache = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.cache[cacheKey(d.Username, d.ID)] = d.DeepCopy()
	}

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// GetDevice retrieves a device by owner and ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) GetDevice(ctx context.Context, username, id string) (*Device, error) {
	// Try cache first
	r.cacheMu.RLock()
	cached, ok := r.cache[cacheKey(username, id)]
	r.cacheMu.RUnlock()

	if ok {
		// Return a deep copy to prevent external mutation of cache
		return cached.DeepCopy(), nil
	}

	// Fall back to repository (might be a new device not yet cached)
	d, err := r.repo.GetByID(ctx, username, id)
	if err != nil {
		return nil, err
	}

	// Cache for future lookups (store a deep copy)
	r.cacheMu.Lock()
	r.cache[cacheKey(username, id)] = d.DeepCopy()
	r.cacheMu.Unlock()

	return d, nil
}

// ListDevices retrieves all devices owned by a user.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) ListDevices(ctx context.Context, username string) ([]Device, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		devices := make([]Device, 0)
		for _, d := range r.cache {
			if d.Username == username {
				devices = append(devices, *d.DeepCopy())
			}
		}
		r.cacheMu.RUnlock()
		return devices, nil
	}
	r.cacheMu.RUnlock()

	// Cache not yet populated, query repository
	devices, err := r.repo.List(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return devices, nil
}

// CreateDevice persists a new device and caches it.
func (r *Registry) CreateDevice(ctx context.Context, d *Device) error {
	if err := validateDevice(d); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[cacheKey(d.Username, d.ID)] = d.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("device created", "username", d.Username, "device_id", d.ID)
	return nil
}

// UpdateDevice persists metadata changes and refreshes the cache entry.
func (r *Registry) UpdateDevice(ctx context.Context, d *Device) error {
	if err := validateDevice(d); err != nil {
		return err
	}

	if err := r.repo.Update(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	// Preserve the cached state map; Update does not touch state.
	if cached, ok := r.cache[cacheKey(d.Username, d.ID)]; ok {
		fresh := d.DeepCopy()
		fresh.State = cached.State
		fresh.StateUpdatedAt = cached.StateUpdatedAt
		r.cache[cacheKey(d.Username, d.ID)] = fresh
	} else {
		r.cache[cacheKey(d.Username, d.ID)] = d.DeepCopy()
	}
	r.cacheMu.Unlock()

	r.logger.Info("device updated", "username", d.Username, "device_id", d.ID)
	return nil
}

// DeleteDevice removes a device from the store and the cache.
func (r *Registry) DeleteDevice(ctx context.Context, username, id string) error {
	if err := r.repo.Delete(ctx, username, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, cacheKey(username, id))
	r.cacheMu.Unlock()

	r.logger.Info("device deleted", "username", username, "device_id", id)
	return nil
}

// UpdateState writes a new canonical state map through to the store and
// updates the cached copy. The state map is stored as-is; callers own
// the merge semantics.
func (r *Registry) UpdateState(ctx context.Context, username, id string, state map[string]any, updatedAt time.Time) error {
	if err := r.repo.UpdateState(ctx, username, id, state, updatedAt); err != nil {
		return err
	}

	r.cacheMu.Lock()
	if cached, ok := r.cache[cacheKey(username, id)]; ok {
		cached.State = copyAnyMap(state)
		t := updatedAt
		cached.StateUpdatedAt = &t
	}
	r.cacheMu.Unlock()

	return nil
}

// validateDevice checks the fields required before persisting.
func validateDevice(d *Device) error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDevice)
	}
	if d.Username == "" {
		return fmt.Errorf("%w: missing username", ErrInvalidDevice)
	}
	if d.Name == "" || len(d.Name) > 100 {
		return ErrInvalidName
	}
	for _, c := range d.Capabilities {
		if !capability.Valid(c) {
			return fmt.Errorf("%w: %q", ErrInvalidCapability, c)
		}
	}
	return nil
}
