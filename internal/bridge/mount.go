package bridge

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/DawPlus/healing-server-sub000/internal/bus"
	"github.com/DawPlus/healing-server-sub000/internal/module"
)

// Mount attaches a module instance. A non-nil handle is registered for
// direct delivery; listener, when set, receives every payload for id once,
// whether it arrives on the module channel or the wildcard. If a broadcast
// already happened the handle is loaded with its rows through its own update
// operation and the listener is handed the latest payload immediately.
//
// The returned function tears the instance down and is safe to call twice.
// It only unregisters the handle it registered, so a stale teardown cannot
// evict a newer instance of the same module.
func (o *Orchestrator) Mount(id module.ID, handle module.Handle, listener bus.Listener) (func(), error) {
	ch, err := o.bus.ChannelFor(id)
	if err != nil {
		return nil, fmt.Errorf("bridge: mount: %w", err)
	}
	log := o.logger.With().Str("module", string(id)).Logger()

	if handle != nil {
		capability, err := o.registry.Register(id, handle)
		if err != nil {
			return nil, fmt.Errorf("bridge: mount: %w", err)
		}
		log.Debug().Str("capability", capability.String()).Msg("module mounted")
		if current, ok := o.Current(id); ok && capability != module.CapabilityNone {
			o.catchUp(log, id, current)
		}
	}

	var unsubs []func()
	if listener != nil {
		var (
			mu      sync.Mutex
			lastSeq uint64
		)
		once := func(p bus.Payload) {
			if p.ModuleID != id {
				return
			}
			mu.Lock()
			if p.Seq != 0 && p.Seq == lastSeq {
				mu.Unlock()
				return
			}
			lastSeq = p.Seq
			mu.Unlock()
			listener(p)
		}
		for _, c := range []bus.Channel{ch, o.bus.Wildcard()} {
			unsub, err := o.bus.Subscribe(c, once)
			if err != nil {
				for _, u := range unsubs {
					u()
				}
				if handle != nil {
					o.registry.UnregisterHandle(id, handle)
				}
				return nil, fmt.Errorf("bridge: mount: %w", err)
			}
			unsubs = append(unsubs, unsub)
		}
		if current, ok := o.Current(id); ok {
			o.pull(id, listener, current)
		}
	}

	var done sync.Once
	return func() {
		done.Do(func() {
			for _, u := range unsubs {
				u()
			}
			if handle != nil && o.registry.UnregisterHandle(id, handle) {
				log.Debug().Msg("module unmounted")
			}
		})
	}, nil
}

func (o *Orchestrator) pull(id module.ID, listener bus.Listener, p bus.Payload) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("module", string(id)).
				Interface("panic", r).
				Msg("mount listener panicked on pull")
		}
	}()
	listener(p)
}

// catchUp hands a freshly mounted handle the rows of the last broadcast. A
// success leaves the stored status alone; a failure is recorded.
func (o *Orchestrator) catchUp(log zerolog.Logger, id module.ID, p bus.Payload) {
	entry, ok := o.registry.Get(id)
	if !ok {
		return
	}
	out := module.Apply(entry, module.Batch{Rows: p.NormalizedRows, RowIDKey: o.normalizer.Table(string(id)).RowID})
	if out.Kind == module.OutcomeSynced {
		log.Debug().Int("rows", len(p.NormalizedRows)).Msg("mounted module caught up")
		return
	}
	o.setStatus(log, id, module.StatusApplying)
	o.setStatus(log, id, out.Status())
	log.Warn().Err(out.Err).Msg("mounted module could not catch up")
	o.logbook.Warn("%s could not load the current roster on mount: %s", id, out.Reason())
}
