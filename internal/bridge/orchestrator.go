// Package bridge keeps every survey module in step with the canonical roster
// and organization context. Synchronization only happens when the operator
// asks for it: editing the roster never reaches a module by itself.
package bridge

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/DawPlus/healing-server-sub000/internal/bus"
	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/logbook"
	"github.com/DawPlus/healing-server-sub000/internal/metrics"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

// ErrBusy rejects a broadcast requested while another is still running.
var ErrBusy = errors.New("bridge: broadcast already in progress")

// Option customizes Orchestrator construction.
type Option func(*Orchestrator)

// WithModules sets the broadcast order. Defaults to module.All().
func WithModules(ids ...module.ID) Option {
	return func(o *Orchestrator) {
		if len(ids) > 0 {
			o.modules = append([]module.ID{}, ids...)
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics records broadcast counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLogbook mirrors broadcast results into the operator journal.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(o *Orchestrator) {
		o.logbook = lb
	}
}

// Orchestrator drives broadcasts. It reads the roster store and writes only
// fingerprints and statuses in the registry.
type Orchestrator struct {
	store      *roster.Store
	registry   *module.Registry
	bus        *bus.Bus
	normalizer *fieldmap.Normalizer
	modules    []module.ID

	logger  zerolog.Logger
	metrics *metrics.Metrics
	logbook *logbook.Logbook

	busy atomic.Bool

	mu   sync.RWMutex
	last map[module.ID]bus.Payload
}

// New wires an orchestrator. Every configured module must have a bus channel.
func New(store *roster.Store, registry *module.Registry, b *bus.Bus, normalizer *fieldmap.Normalizer, opts ...Option) (*Orchestrator, error) {
	if store == nil || registry == nil || b == nil || normalizer == nil {
		return nil, fmt.Errorf("bridge: store, registry, bus and normalizer are required")
	}
	o := &Orchestrator{
		store:      store,
		registry:   registry,
		bus:        b,
		normalizer: normalizer,
		modules:    module.All(),
		logger:     zerolog.Nop(),
		last:       map[module.ID]bus.Payload{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if _, err := module.ParseList(idStrings(o.modules)); err != nil {
		return nil, fmt.Errorf("bridge: %w", err)
	}
	for _, id := range o.modules {
		if _, err := b.ChannelFor(id); err != nil {
			return nil, fmt.Errorf("bridge: %w", err)
		}
	}
	return o, nil
}

// Modules returns the broadcast order.
func (o *Orchestrator) Modules() []module.ID {
	return append([]module.ID{}, o.modules...)
}

// Store returns the roster store the orchestrator reads from.
func (o *Orchestrator) Store() *roster.Store {
	return o.store
}

// Registry returns the module registry.
func (o *Orchestrator) Registry() *module.Registry {
	return o.registry
}

// Status returns the sync state of id.
func (o *Orchestrator) Status(id module.ID) module.Status {
	return o.registry.Status(id)
}

// Busy reports whether a broadcast is running.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// ApplyToAllModules validates the roster, then delivers it to every
// configured module: through the registered handle when there is one, and
// always through the bus. A validation failure touches nothing; a module
// failure is recorded and the rest still receive the roster.
func (o *Orchestrator) ApplyToAllModules() (Summary, error) {
	if !o.busy.CompareAndSwap(false, true) {
		o.logger.Warn().Msg("broadcast rejected: already in progress")
		o.metrics.ObserveBroadcast(metrics.BroadcastRejectedBusy)
		return Summary{}, ErrBusy
	}
	defer o.busy.Store(false)

	r := o.store.Roster()
	ctx := o.store.Context()
	if err := roster.ValidateForBroadcast(r); err != nil {
		o.logger.Warn().Err(err).Int("participants", len(r)).Msg("broadcast rejected: invalid roster")
		o.metrics.ObserveBroadcast(metrics.BroadcastRejectedValidation)
		o.logbook.Warn("Apply blocked: %v", err)
		return Summary{}, err
	}

	fp := roster.ComputeFingerprint(r)
	summary := Summary{Fingerprint: fp}
	o.logger.Info().
		Str("fingerprint", shortPrint(fp)).
		Int("participants", len(r)).
		Int("modules", len(o.modules)).
		Msg("broadcast started")

	for _, id := range o.modules {
		o.deliver(id, r, ctx, fp, &summary)
	}

	o.metrics.ObserveBroadcast(metrics.BroadcastApplied)
	o.metrics.AddBusDeliveries(summary.Deliveries)
	o.logger.Info().
		Str("fingerprint", shortPrint(fp)).
		Int("synced", len(summary.Succeeded)).
		Int("unsupported", len(summary.Unsupported)).
		Int("failed", len(summary.Failed)).
		Int("deferred", len(summary.Deferred)).
		Msg("broadcast finished")
	if summary.OK() {
		o.logbook.Info("Applied %d participants (%s): %s", len(r), shortPrint(fp), summary)
	} else {
		o.logbook.Warn("Applied %d participants (%s): %s", len(r), shortPrint(fp), summary)
	}
	return summary, nil
}

func (o *Orchestrator) deliver(id module.ID, r roster.Roster, ctx roster.OrganizationContext, fp string, summary *Summary) {
	log := o.logger.With().Str("module", string(id)).Logger()
	rows := o.normalizer.NormalizeRoster(string(id), r, ctx)
	payload := bus.Payload{ModuleID: id, Roster: r.Clone(), NormalizedRows: rows}

	if entry, ok := o.registry.Get(id); ok {
		o.setStatus(log, id, module.StatusApplying)
		out := module.Apply(entry, module.Batch{Rows: rows, RowIDKey: o.normalizer.Table(string(id)).RowID})
		o.setStatus(log, id, out.Status())
		o.metrics.ObserveOutcome(string(id), string(out.Kind))
		switch out.Kind {
		case module.OutcomeSynced:
			summary.Succeeded = append(summary.Succeeded, id)
			log.Debug().Str("capability", out.Capability.String()).Msg("module synced")
		case module.OutcomeUnsupported:
			summary.Unsupported = append(summary.Unsupported, id)
			log.Warn().Msg("module exposes no update operation")
		default:
			summary.Failed = append(summary.Failed, Failure{ModuleID: id, Reason: out.Reason()})
			log.Warn().Err(out.Err).Str("capability", out.Capability.String()).Msg("module apply failed")
		}
	} else {
		summary.Deferred = append(summary.Deferred, id)
		log.Debug().Msg("no handle registered; bus only")
	}

	o.remember(id, payload)
	n, err := o.bus.Publish(id, payload)
	if err != nil {
		log.Error().Err(err).Msg("bus publish failed")
	}
	summary.Deliveries += n
	o.registry.SetFingerprint(id, fp)
}

func (o *Orchestrator) setStatus(log zerolog.Logger, id module.ID, next module.Status) {
	if err := o.registry.SetStatus(id, next); err != nil {
		log.Error().Err(err).Msg("status transition rejected")
	}
}

func (o *Orchestrator) remember(id module.ID, payload bus.Payload) {
	o.mu.Lock()
	o.last[id] = payload
	o.mu.Unlock()
}

// Current returns the payload most recently broadcast for id. A module that
// mounts after a broadcast pulls this, since the bus does not replay.
func (o *Orchestrator) Current(id module.ID) (bus.Payload, bool) {
	o.mu.RLock()
	p, ok := o.last[id]
	o.mu.RUnlock()
	if !ok {
		return bus.Payload{}, false
	}
	rows := make([]fieldmap.Row, len(p.NormalizedRows))
	for i, row := range p.NormalizedRows {
		rows[i] = row.Clone()
	}
	return bus.Payload{ModuleID: p.ModuleID, Roster: p.Roster.Clone(), NormalizedRows: rows, Seq: p.Seq}, true
}

func idStrings(ids []module.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func shortPrint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
