package module

import (
	"errors"
	"fmt"
	"sync"

	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
)

// ErrUnsupported marks a module that exposes none of the update operations.
var ErrUnsupported = errors.New("module: no supported update operation")

// ApplyError wraps a failure raised by the module's own update operation.
type ApplyError struct {
	Module ID
	Op     Capability
	Reason string
	Panic  bool
}

func (e *ApplyError) Error() string {
	if e.Panic {
		return fmt.Sprintf("module: %s %s panicked: %s", e.Module, e.Op, e.Reason)
	}
	return fmt.Sprintf("module: %s %s failed: %s", e.Module, e.Op, e.Reason)
}

// OutcomeKind is the result class of one delivery.
type OutcomeKind string

const (
	OutcomeSynced      OutcomeKind = "synced"
	OutcomeFailed      OutcomeKind = "failed"
	OutcomeUnsupported OutcomeKind = "unsupported"
)

// Outcome reports what happened when rows were handed to a module.
type Outcome struct {
	Kind       OutcomeKind
	Capability Capability
	Err        error
}

// Reason is the human readable failure reason, or "".
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	var applyErr *ApplyError
	if errors.As(o.Err, &applyErr) {
		return applyErr.Reason
	}
	return o.Err.Error()
}

// Status maps the outcome onto the per-module sync state.
func (o Outcome) Status() Status {
	switch o.Kind {
	case OutcomeSynced:
		return StatusSynced
	case OutcomeUnsupported:
		return StatusUnsupported
	default:
		return StatusFailed
	}
}

// Batch is the normalized data for one module.
type Batch struct {
	Rows []fieldmap.Row
	// RowIDKey is the key under which each row carries its identifier.
	RowIDKey string
}

// Apply hands batch to the entry's handle using the capability recorded at
// registration. It never panics and never returns an error directly: module
// failures come back as an Outcome.
func Apply(entry Entry, batch Batch) (out Outcome) {
	out.Capability = entry.Capability
	if entry.Handle == nil || entry.Capability == CapabilityNone {
		out.Kind = OutcomeUnsupported
		out.Err = fmt.Errorf("%w: %s", ErrUnsupported, entry.ID)
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			out.Kind = OutcomeFailed
			out.Err = &ApplyError{Module: entry.ID, Op: entry.Capability, Reason: fmt.Sprint(r), Panic: true}
		}
	}()

	rows := cloneRows(batch.Rows)
	switch entry.Capability {
	case CapabilityBulkReplace:
		h, ok := entry.Handle.(BulkReplacer)
		if !ok {
			return mismatch(entry)
		}
		if !h.ReplaceAllRows(rows) {
			return failed(entry, "replaceAllRows reported failure")
		}
	case CapabilityPerRowSet:
		h, ok := entry.Handle.(RowSetter)
		if !ok {
			return mismatch(entry)
		}
		for _, row := range rows {
			rowID := row.ID(batch.RowIDKey)
			if !h.SetRow(rowID, rows) {
				return failed(entry, fmt.Sprintf("setRow(%s) reported failure", rowID))
			}
		}
	case CapabilityRawAssign:
		h, ok := entry.Handle.(RowsSlot)
		if !ok {
			return mismatch(entry)
		}
		slot := h.RowsSlot()
		if slot == nil {
			return failed(entry, "rows slot is nil")
		}
		if l, ok := entry.Handle.(sync.Locker); ok {
			l.Lock()
			*slot = rows
			l.Unlock()
		} else {
			*slot = rows
		}
	default:
		return mismatch(entry)
	}
	out.Kind = OutcomeSynced
	return out
}

func failed(entry Entry, reason string) Outcome {
	return Outcome{
		Kind:       OutcomeFailed,
		Capability: entry.Capability,
		Err:        &ApplyError{Module: entry.ID, Op: entry.Capability, Reason: reason},
	}
}

// mismatch covers an entry whose recorded capability no longer matches the
// handle, which only happens if an Entry is built by hand.
func mismatch(entry Entry) Outcome {
	return failed(entry, fmt.Sprintf("handle does not implement %s", entry.Capability))
}

func cloneRows(rows []fieldmap.Row) []fieldmap.Row {
	out := make([]fieldmap.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
