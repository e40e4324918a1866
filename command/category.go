package command

import "github.com/vkngwrapper/core/v2/core1_0"

// MaxFramesInFlight is the number of frames the engine records ahead of the
// device. In-flight pools, command buffers, and per-frame resources come in
// arrays of this length.
const MaxFramesInFlight = 2

// Category names a command pool's reset discipline. Every pool the engine
// creates belongs to exactly one category, and the category decides both the
// pool's creation flags and which lifecycle operations its buffers allow.
type Category int32

const (
	// CategoryTransient pools hold short-lived one-time-submit buffers,
	// reset at the pool level once the work completes.
	CategoryTransient Category = iota
	// CategoryReshape pools hold buffers re-recorded only on swapchain or
	// resource reshape events, reset at the pool level.
	CategoryReshape
	// CategoryInFlight pools come one per in-flight frame and are reset at
	// the pool level when their frame's fence signals.
	CategoryInFlight
	// CategoryGeneral pools allow individual buffer resets for workloads
	// with no common reset point.
	CategoryGeneral
)

var categoryNames = make(map[Category]string)

func init() {
	categoryNames[CategoryTransient] = "CategoryTransient"
	categoryNames[CategoryReshape] = "CategoryReshape"
	categoryNames[CategoryInFlight] = "CategoryInFlight"
	categoryNames[CategoryGeneral] = "CategoryGeneral"
}

func (c Category) String() string {
	return categoryNames[c]
}

// PoolFlags returns the creation flags a pool of this category is created
// with. Only transient pools hint the driver about short-lived allocations,
// and only general pools pay for per-buffer reset tracking.
func (c Category) PoolFlags() core1_0.CommandPoolCreateFlags {
	switch c {
	case CategoryTransient:
		return core1_0.CommandPoolCreateTransient
	case CategoryGeneral:
		return core1_0.CommandPoolCreateResetBuffer
	default:
		return 0
	}
}

// AllowsBufferReset returns true when buffers from pools of this category
// may be individually reset.
func (c Category) AllowsBufferReset() bool {
	return c == CategoryGeneral
}
