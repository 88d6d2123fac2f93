// Package bus is the in-process publish/subscribe fallback for delivering
// roster broadcasts to modules that have not registered a handle. Delivery is
// synchronous and at-most-once per publish: there is no backlog and no
// replay, so a module that subscribes late must pull current state itself.
package bus

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

// DefaultTopicPrefix prefixes every channel key.
const DefaultTopicPrefix = "roster-sync"

const wildcardSuffix = "*"

// Channel is a channel key. Valid keys are fixed when the Bus is built.
type Channel string

// Payload is published on the module channel and on the wildcard channel.
// Wildcard listeners must filter on ModuleID.
type Payload struct {
	ModuleID       module.ID
	Roster         roster.Roster
	NormalizedRows []fieldmap.Row
	// Seq is assigned by Publish and shared by both channel deliveries of
	// one publish, so a listener on both channels can drop the repeat.
	Seq uint64
}

func (p Payload) clone() Payload {
	rows := make([]fieldmap.Row, len(p.NormalizedRows))
	for i, r := range p.NormalizedRows {
		rows[i] = r.Clone()
	}
	return Payload{ModuleID: p.ModuleID, Roster: p.Roster.Clone(), NormalizedRows: rows, Seq: p.Seq}
}

// Listener receives a payload. It runs on the publisher's goroutine.
type Listener func(Payload)

// Option customizes Bus construction.
type Option func(*Bus)

// WithLogger injects a logger for listener failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithTopicPrefix overrides DefaultTopicPrefix.
func WithTopicPrefix(prefix string) Option {
	return func(b *Bus) {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			b.prefix = prefix
		}
	}
}

type subscription struct {
	seq      uint64
	listener Listener
}

// Bus routes payloads to channel subscribers.
type Bus struct {
	mu       sync.RWMutex
	prefix   string
	channels map[Channel]module.ID
	subs     map[Channel][]subscription
	nextSeq  uint64
	pubSeq   uint64
	logger   zerolog.Logger
}

// New builds a bus whose channels are one per id plus the wildcard.
func New(ids []module.ID, opts ...Option) (*Bus, error) {
	b := &Bus{
		prefix: DefaultTopicPrefix,
		subs:   map[Channel][]subscription{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.channels = make(map[Channel]module.ID, len(ids))
	for _, id := range ids {
		if !id.Valid() {
			return nil, fmt.Errorf("bus: unknown module id %q", id)
		}
		b.channels[b.key(id)] = id
	}
	return b, nil
}

func (b *Bus) key(id module.ID) Channel {
	return Channel(b.prefix + "-" + string(id))
}

// Wildcard is the shared channel every publish is mirrored to.
func (b *Bus) Wildcard() Channel {
	return Channel(b.prefix + "-" + wildcardSuffix)
}

// ChannelFor returns the module-specific channel for id.
func (b *Bus) ChannelFor(id module.ID) (Channel, error) {
	ch := b.key(id)
	if _, ok := b.channels[ch]; !ok {
		return "", fmt.Errorf("bus: no channel for module %q", id)
	}
	return ch, nil
}

func (b *Bus) known(ch Channel) bool {
	if ch == b.Wildcard() {
		return true
	}
	_, ok := b.channels[ch]
	return ok
}

// Subscribe attaches listener to ch. The returned function detaches it and
// is safe to call more than once.
func (b *Bus) Subscribe(ch Channel, listener Listener) (func(), error) {
	if listener == nil {
		return nil, fmt.Errorf("bus: listener is required")
	}
	if !b.known(ch) {
		return nil, fmt.Errorf("bus: unknown channel %q", ch)
	}
	b.mu.Lock()
	b.nextSeq++
	seq := b.nextSeq
	b.subs[ch] = append(b.subs[ch], subscription{seq: seq, listener: listener})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(ch, seq) })
	}, nil
}

func (b *Bus) remove(ch Channel, seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[ch]
	for i, s := range subs {
		if s.seq == seq {
			b.subs[ch] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[ch]) == 0 {
		delete(b.subs, ch)
	}
}

// Publish delivers payload to id's channel, then to the wildcard channel,
// and returns how many listeners ran. Listener panics are logged and do not
// stop delivery to the rest.
func (b *Bus) Publish(id module.ID, payload Payload) (int, error) {
	ch, err := b.ChannelFor(id)
	if err != nil {
		return 0, err
	}
	payload.ModuleID = id
	b.mu.Lock()
	b.pubSeq++
	payload.Seq = b.pubSeq
	targets := make([]Listener, 0, len(b.subs[ch])+len(b.subs[b.Wildcard()]))
	for _, s := range b.subs[ch] {
		targets = append(targets, s.listener)
	}
	for _, s := range b.subs[b.Wildcard()] {
		targets = append(targets, s.listener)
	}
	b.mu.Unlock()

	for _, listener := range targets {
		b.deliver(id, listener, payload.clone())
	}
	return len(targets), nil
}

func (b *Bus) deliver(id module.ID, listener Listener, payload Payload) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("module", string(id)).
				Interface("panic", r).
				Msg("bus listener panicked")
		}
	}()
	listener(payload)
}

// Subscribers returns how many listeners are attached to ch.
func (b *Bus) Subscribers(ch Channel) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[ch])
}
