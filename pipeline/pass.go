package pipeline

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/voxelboids/field"
	"github.com/pthm-cable/voxelboids/renderer"
)

// Role names a resource a pass binds. Field and volume roles are resolved
// through their selectors each time a pass runs.
type Role int

const (
	RolePosX Role = iota
	RolePosY
	RolePosZ
	RoleVelX
	RoleVelY
	RoleVelZ
	RoleFieldCurrent // most recently written diffusion grid
	RoleFieldNext    // the other diffusion grid
	RoleVolumeFront  // published volume, previous completed frame
	RoleVolumeBack   // volume being built this frame
	RoleImage        // render target
	numRoles
)

var roleNames = [numRoles]string{
	"pos_x", "pos_y", "pos_z",
	"vel_x", "vel_y", "vel_z",
	"field_current", "field_next",
	"volume_front", "volume_back",
	"image",
}

func (r Role) String() string {
	if r >= 0 && r < numRoles {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Kind is the storage type behind a role.
type Kind int

const (
	KindAgentBuffer Kind = iota
	KindGrid
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindAgentBuffer:
		return "agent_buffer"
	case KindGrid:
		return "grid"
	case KindImage:
		return "image"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// roleKind is the kind every role must be bound as.
func roleKind(r Role) Kind {
	switch r {
	case RoleFieldCurrent, RoleFieldNext, RoleVolumeFront, RoleVolumeBack:
		return KindGrid
	case RoleImage:
		return KindImage
	}
	return KindAgentBuffer
}

// aliasGroup collapses roles that can resolve to the same storage across a
// frame. Two passes touching the same group need an ordering edge.
func aliasGroup(r Role) Role {
	switch r {
	case RoleFieldNext:
		return RoleFieldCurrent
	case RoleVolumeBack:
		return RoleVolumeFront
	}
	return r
}

// Access declares how a pass uses a slot.
type Access int

const (
	Read Access = 1 << iota
	Write
	ReadWrite = Read | Write
)

func (a Access) String() string {
	switch a {
	case Read:
		return "r"
	case Write:
		return "w"
	case ReadWrite:
		return "rw"
	}
	return fmt.Sprintf("access(%d)", int(a))
}

// Slot is one entry of a pass's binding contract.
type Slot struct {
	Role   Role
	Kind   Kind
	Access Access
}

func (s Slot) String() string {
	return fmt.Sprintf("%s:%s:%s", s.Role, s.Kind, s.Access)
}

// Binding is a slot resolved to concrete storage for one pass invocation.
// Exactly one of Buf, Grid, Image is set, according to Slot.Kind.
type Binding struct {
	Slot
	Buf   []float32
	Grid  *field.Grid
	Image *renderer.Image
}

// Pass is a named data-parallel kernel with a fixed binding contract.
type Pass struct {
	Name  string
	Slots []Slot
	// After lists passes that must complete before this one starts.
	After []string
	// Sim passes are skipped while paused.
	Sim bool

	// Domain returns the number of work items this frame.
	Domain func(f *Frame) int
	// Before runs once on the orchestrator goroutine ahead of the dispatch.
	Before func(f *Frame, b []Binding)
	// Kernel processes work items [lo, hi). Calls for disjoint ranges run concurrently.
	Kernel func(f *Frame, b []Binding, lo, hi, worker int)
}

// writes reports whether the pass writes role r.
func (p *Pass) writes(r Role) bool {
	for _, s := range p.Slots {
		if s.Role == r && s.Access&Write != 0 {
			return true
		}
	}
	return false
}

// BindingError reports a pass whose declared slots cannot be bound.
type BindingError struct {
	Pass   string
	Slot   int
	Role   Role
	Reason string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("pipeline: pass %s slot %d (%s): %s", e.Pass, e.Slot, e.Role, e.Reason)
}

// checkBindings verifies every slot against the role table and the supplied resources.
func checkBindings(p *Pass, res *Resources) error {
	if p.Domain == nil || p.Kernel == nil {
		return &BindingError{Pass: p.Name, Slot: -1, Reason: "missing domain or kernel"}
	}
	seen := make(map[Role]bool, len(p.Slots))
	for i, s := range p.Slots {
		if s.Role < 0 || s.Role >= numRoles {
			return &BindingError{Pass: p.Name, Slot: i, Role: s.Role, Reason: "unknown role"}
		}
		if seen[s.Role] {
			return &BindingError{Pass: p.Name, Slot: i, Role: s.Role, Reason: "role bound twice"}
		}
		seen[s.Role] = true
		if want := roleKind(s.Role); s.Kind != want {
			return &BindingError{Pass: p.Name, Slot: i, Role: s.Role, Reason: fmt.Sprintf("declared %s, role is %s", s.Kind, want)}
		}
		if s.Access&ReadWrite == 0 || s.Access&^ReadWrite != 0 {
			return &BindingError{Pass: p.Name, Slot: i, Role: s.Role, Reason: "invalid access"}
		}
		if !res.provides(s.Role) {
			return &BindingError{Pass: p.Name, Slot: i, Role: s.Role, Reason: "no resource provided"}
		}
	}
	return nil
}

// describe renders a pass's contract for logs.
func describe(p *Pass) string {
	parts := make([]string, len(p.Slots))
	for i, s := range p.Slots {
		parts[i] = s.String()
	}
	return p.Name + "[" + strings.Join(parts, ", ") + "]"
}
