package module

import "github.com/DawPlus/healing-server-sub000/internal/fieldmap"

// Handle is whatever a mounted module registers. The registry never owns it:
// the module instance creates it and unregisters it on teardown.
type Handle any

// BulkReplacer swaps every row at once.
type BulkReplacer interface {
	ReplaceAllRows(rows []fieldmap.Row) bool
}

// RowSetter upserts one row, identified by rowID, out of the full row set.
type RowSetter interface {
	SetRow(rowID string, rows []fieldmap.Row) bool
}

// RowsSlot exposes the module's raw row state for direct assignment. When the
// handle also implements sync.Locker, Apply holds that lock while it writes.
type RowsSlot interface {
	RowsSlot() *[]fieldmap.Row
}

// Capability records which update operation a handle supports.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityBulkReplace
	CapabilityPerRowSet
	CapabilityRawAssign
)

func (c Capability) String() string {
	switch c {
	case CapabilityBulkReplace:
		return "bulk-replace"
	case CapabilityPerRowSet:
		return "per-row-set"
	case CapabilityRawAssign:
		return "raw-assign"
	default:
		return "none"
	}
}

// Probe picks the first supported operation in priority order:
// bulk replace, per-row set, raw assignment.
func Probe(h Handle) Capability {
	if h == nil {
		return CapabilityNone
	}
	if _, ok := h.(BulkReplacer); ok {
		return CapabilityBulkReplace
	}
	if _, ok := h.(RowSetter); ok {
		return CapabilityPerRowSet
	}
	if _, ok := h.(RowsSlot); ok {
		return CapabilityRawAssign
	}
	return CapabilityNone
}
