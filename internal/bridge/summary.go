package bridge

import (
	"fmt"
	"strings"

	"github.com/DawPlus/healing-server-sub000/internal/module"
)

// Failure is one module whose handle rejected the broadcast.
type Failure struct {
	ModuleID module.ID
	Reason   string
}

// Summary reports one broadcast.
type Summary struct {
	Fingerprint string
	Succeeded   []module.ID
	Unsupported []module.ID
	Failed      []Failure
	// Deferred modules had no registered handle; they only got the bus publish.
	Deferred []module.ID
	// Deliveries counts bus listener invocations across all modules.
	Deliveries int
}

// OK reports whether no registered module failed or lacked an operation.
func (s Summary) OK() bool {
	return len(s.Failed) == 0 && len(s.Unsupported) == 0
}

// FailedIDs lists failed module ids in broadcast order.
func (s Summary) FailedIDs() []module.ID {
	ids := make([]module.ID, 0, len(s.Failed))
	for _, f := range s.Failed {
		ids = append(ids, f.ModuleID)
	}
	return ids
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "synced %d · unsupported %d · failed %d · deferred %d",
		len(s.Succeeded), len(s.Unsupported), len(s.Failed), len(s.Deferred))
	if len(s.Unsupported) > 0 {
		fmt.Fprintf(&b, " · unsupported: %s", joinIDs(s.Unsupported))
	}
	for _, f := range s.Failed {
		fmt.Fprintf(&b, " · %s: %s", f.ModuleID, f.Reason)
	}
	return b.String()
}

func joinIDs(ids []module.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
