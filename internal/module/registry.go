package module

import (
	"fmt"
	"strings"
	"sync"
)

// FingerprintPolicy decides what unregistering does to a stored fingerprint.
type FingerprintPolicy string

const (
	// FingerprintRetain keeps the fingerprint across unmount/remount, so a
	// remounted module is assumed to still reflect the last roster.
	FingerprintRetain FingerprintPolicy = "retain"
	// FingerprintClearOnUnregister forgets the fingerprint and resets the
	// module to Unsynced when it unregisters.
	FingerprintClearOnUnregister FingerprintPolicy = "clear-on-unregister"
)

// ParseFingerprintPolicy accepts the policy names used in config files.
func ParseFingerprintPolicy(value string) (FingerprintPolicy, error) {
	switch FingerprintPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", FingerprintRetain:
		return FingerprintRetain, nil
	case FingerprintClearOnUnregister:
		return FingerprintClearOnUnregister, nil
	default:
		return "", fmt.Errorf("module: unknown fingerprint policy %q", value)
	}
}

// Entry is a registered handle plus the capability probed when it registered.
type Entry struct {
	ID         ID
	Handle     Handle
	Capability Capability
}

type slot struct {
	handle      Handle
	capability  Capability
	registered  bool
	fingerprint string
	hasPrint    bool
	status      Status
}

// RegistryOption customizes Registry construction.
type RegistryOption func(*Registry)

// RegistryWithFingerprintPolicy overrides the default retain policy.
func RegistryWithFingerprintPolicy(policy FingerprintPolicy) RegistryOption {
	return func(r *Registry) {
		if policy != "" {
			r.policy = policy
		}
	}
}

// RegistryWithObserver is called with the number of live handles after every
// register/unregister.
func RegistryWithObserver(fn func(registered int)) RegistryOption {
	return func(r *Registry) {
		r.observer = fn
	}
}

// Registry maps module ids to their current handle and last applied
// fingerprint. It only looks handles up; it never tears them down.
type Registry struct {
	mu       sync.RWMutex
	slots    map[ID]*slot
	policy   FingerprintPolicy
	observer func(int)
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		slots:  map[ID]*slot{},
		policy: FingerprintRetain,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register installs or replaces the handle for id and returns the probed
// capability. A remount keeps the stored fingerprint.
func (r *Registry) Register(id ID, h Handle) (Capability, error) {
	if !id.Valid() {
		return CapabilityNone, fmt.Errorf("module: unknown id %q", id)
	}
	if h == nil {
		return CapabilityNone, fmt.Errorf("module: handle is required for %s", id)
	}
	capability := Probe(h)
	r.mu.Lock()
	s := r.slotLocked(id)
	s.handle = h
	s.capability = capability
	s.registered = true
	count := r.countLocked()
	r.mu.Unlock()
	r.notify(count)
	return capability, nil
}

// Unregister withdraws the handle for id. It is a no-op when nothing is
// registered.
func (r *Registry) Unregister(id ID) {
	r.unregister(id, nil)
}

// UnregisterHandle withdraws h only if it is still the handle registered for
// id, so a stale instance tearing down cannot evict its replacement.
func (r *Registry) UnregisterHandle(id ID, h Handle) bool {
	if h == nil {
		return false
	}
	return r.unregister(id, h)
}

func (r *Registry) unregister(id ID, only Handle) bool {
	r.mu.Lock()
	s, ok := r.slots[id]
	if !ok || !s.registered || (only != nil && !sameHandle(s.handle, only)) {
		r.mu.Unlock()
		return false
	}
	s.handle = nil
	s.capability = CapabilityNone
	s.registered = false
	if r.policy == FingerprintClearOnUnregister {
		s.fingerprint = ""
		s.hasPrint = false
		s.status = StatusUnsynced
	}
	count := r.countLocked()
	r.mu.Unlock()
	r.notify(count)
	return true
}

// Get returns the live entry for id.
func (r *Registry) Get(id ID) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[id]
	if !ok || !s.registered {
		return Entry{}, false
	}
	return Entry{ID: id, Handle: s.handle, Capability: s.capability}, true
}

// Fingerprint returns the last fingerprint applied to id.
func (r *Registry) Fingerprint(id ID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[id]
	if !ok || !s.hasPrint {
		return "", false
	}
	return s.fingerprint, true
}

// SetFingerprint stores fp for id whether or not a handle is registered.
func (r *Registry) SetFingerprint(id ID, fp string) {
	r.mu.Lock()
	s := r.slotLocked(id)
	s.fingerprint = fp
	s.hasPrint = true
	r.mu.Unlock()
}

// Fingerprints returns a copy of every stored fingerprint.
func (r *Registry) Fingerprints() map[ID]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[ID]string, len(r.slots))
	for id, s := range r.slots {
		if s.hasPrint {
			out[id] = s.fingerprint
		}
	}
	return out
}

// Status returns the sync state of id; unknown ids are Unsynced.
func (r *Registry) Status(id ID) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.slots[id]; ok {
		return s.status
	}
	return StatusUnsynced
}

// SetStatus moves id to next, rejecting illegal transitions.
func (r *Registry) SetStatus(id ID, next Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.slotLocked(id)
	status, err := Transition(s.status, next)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	s.status = status
	return nil
}

// Registered returns ids with a live handle, in broadcast order.
func (r *Registry) Registered() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.slots))
	for _, id := range all {
		if s, ok := r.slots[id]; ok && s.registered {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Registry) slotLocked(id ID) *slot {
	s, ok := r.slots[id]
	if !ok {
		s = &slot{status: StatusUnsynced}
		r.slots[id] = s
	}
	return s
}

func (r *Registry) countLocked() int {
	n := 0
	for _, s := range r.slots {
		if s.registered {
			n++
		}
	}
	return n
}

// sameHandle compares handles by identity; uncomparable dynamic types never match.
func sameHandle(a, b Handle) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

func (r *Registry) notify(count int) {
	if r.observer != nil {
		r.observer(count)
	}
}
