package pipeline

import (
	"path/filepath"
	"time"

	"screend/internal/registry"
	"screend/pkg/types"
)

// Slot names one side of the double buffer.
type Slot int

const (
	SlotNone Slot = iota
	SlotA
	SlotB
)

func (s Slot) String() string {
	switch s {
	case SlotA:
		return "a"
	case SlotB:
		return "b"
	default:
		return "none"
	}
}

// next returns the slot the upcoming generation must be written to. The live
// slot is never the write target, so a reader mid-fetch can not observe a
// partial file.
func (s Slot) next() Slot {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

// Phase is the scheduler state for one tenant.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseRendering
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseRendering:
		return "rendering"
	default:
		return "idle"
	}
}

// tenantState holds everything the pipeline tracks for one tenant. All
// fields are guarded by the pipeline mutex; renders read the snapshot they
// need under the lock and run outside it.
type tenantState struct {
	tenant types.Tenant

	phase Phase
	// again records a notify that arrived while a render was in flight;
	// the scheduler owes the tenant exactly one more pass.
	again bool
	timer Timer

	live          Slot
	version       uint64
	lastPublished time.Time
	lastErr       string
}

func (ts *tenantState) slotPath(s Slot) string {
	switch s {
	case SlotA:
		return filepath.Join(ts.tenant.Dir, registry.PublicDirName, "screen_A.png")
	case SlotB:
		return filepath.Join(ts.tenant.Dir, registry.PublicDirName, "screen_B.png")
	default:
		return ""
	}
}

func (ts *tenantState) tmpDir() string {
	return filepath.Join(ts.tenant.Dir, registry.PublicDirName, "__tmp")
}
