package command

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// State tracks where a command buffer sits in its lifecycle. The native API
// keeps this state internally and turns violations into undefined behavior;
// tracking it on the host turns them into panics at the offending call site
// instead.
type State int32

const (
	// StateInitial buffers hold no commands and may begin recording.
	StateInitial State = iota
	// StateRecording buffers are between Begin and End.
	StateRecording
	// StateExecutable buffers hold a complete recording and may be
	// submitted.
	StateExecutable
	// StatePending buffers are owned by the device until their submission
	// completes. They must not be re-recorded, reset, or freed.
	StatePending
	// StateInvalid buffers held a one-time recording that has executed, or
	// recorded against a resource that has since been destroyed. They must
	// be reset or freed.
	StateInvalid
)

var stateNames = make(map[State]string)

func init() {
	stateNames[StateInitial] = "StateInitial"
	stateNames[StateRecording] = "StateRecording"
	stateNames[StateExecutable] = "StateExecutable"
	stateNames[StatePending] = "StatePending"
	stateNames[StateInvalid] = "StateInvalid"
}

func (s State) String() string {
	return stateNames[s]
}

// Buffer is a command buffer with host-side lifecycle tracking. It is not
// safe for concurrent use, matching the native object's external
// synchronization requirement.
type Buffer struct {
	device core1_0.Device
	handle core1_0.CommandBuffer

	category Category
	level    core1_0.CommandBufferLevel
	state    State
	oneTime  bool
}

// Allocate allocates a single tracked command buffer from pool.
func Allocate(device core1_0.Device, pool *Pool, level core1_0.CommandBufferLevel) (*Buffer, error) {
	buffers, err := allocate(device, pool, level, 1)
	if err != nil {
		return nil, err
	}

	return buffers[0], nil
}

// AllocateInFlight allocates one command buffer from each per-frame pool.
// Every pool must be an in-flight pool. On any failure, buffers already
// allocated from earlier pools are freed before the error is returned.
func AllocateInFlight(device core1_0.Device, pools []*Pool, level core1_0.CommandBufferLevel) ([]*Buffer, error) {
	buffers := make([]*Buffer, 0, len(pools))

	for _, pool := range pools {
		if pool.Category() != CategoryInFlight {
			panic("command: attempting to allocate in-flight command buffers from a pool that is not an in-flight pool")
		}

		frameBuffers, err := allocate(device, pool, level, 1)
		if err != nil {
			for _, allocated := range buffers {
				allocated.Free()
			}
			return nil, err
		}

		buffers = append(buffers, frameBuffers[0])
	}

	return buffers, nil
}

func allocate(device core1_0.Device, pool *Pool, level core1_0.CommandBufferLevel, count int) ([]*Buffer, error) {
	handles, _, err := device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        pool.Handle(),
		Level:              level,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate command buffers")
	}

	buffers := make([]*Buffer, 0, len(handles))
	for _, handle := range handles {
		buffers = append(buffers, &Buffer{
			device:   device,
			handle:   handle,
			category: pool.Category(),
			level:    level,
			state:    StateInitial,
		})
	}

	return buffers, nil
}

// Handle returns the native command buffer for recording commands.
func (b *Buffer) Handle() core1_0.CommandBuffer {
	return b.handle
}

// State returns the buffer's tracked lifecycle state.
func (b *Buffer) State() State {
	return b.state
}

// Level returns whether this is a primary or secondary buffer.
func (b *Buffer) Level() core1_0.CommandBufferLevel {
	return b.level
}

// Category returns the reset discipline of the pool this buffer came from.
func (b *Buffer) Category() Category {
	return b.category
}

func (b *Buffer) checkBeginnable() {
	switch b.state {
	case StatePending:
		panic("command: attempting to record a command buffer that is still pending execution")
	case StateRecording:
		panic("command: attempting to begin a command buffer that is already recording")
	case StateExecutable, StateInvalid:
		// Re-recording implicitly resets, which only buffer-resettable
		// pools permit
		if !b.category.AllowsBufferReset() {
			panic("command: attempting to re-record a command buffer whose pool does not permit buffer resets")
		}
	}
}

// BeginOneTime starts a one-time-submit recording on a primary buffer.
func (b *Buffer) BeginOneTime() error {
	if b.level != core1_0.CommandBufferLevelPrimary {
		panic("command: attempting a primary one-time begin on a secondary command buffer")
	}
	b.checkBeginnable()

	_, err := b.handle.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return errors.Wrap(err, "failed to begin a one-time command buffer")
	}

	b.state = StateRecording
	b.oneTime = true
	return nil
}

// BeginOneTimeSecondary starts a one-time-submit recording on a secondary
// buffer, carrying the execution state it inherits from the primary buffer
// that will execute it.
func (b *Buffer) BeginOneTimeSecondary(inheritance *core1_0.CommandBufferInheritanceInfo) error {
	if b.level != core1_0.CommandBufferLevelSecondary {
		panic("command: attempting a secondary one-time begin on a primary command buffer")
	}
	if inheritance == nil {
		panic("command: attempting to begin a secondary command buffer without inheritance state")
	}
	b.checkBeginnable()

	flags := core1_0.CommandBufferUsageOneTimeSubmit
	if inheritance.RenderPass != nil {
		flags |= core1_0.CommandBufferUsageRenderPassContinue
	}

	_, err := b.handle.Begin(core1_0.CommandBufferBeginInfo{
		Flags:           flags,
		InheritanceInfo: inheritance,
	})
	if err != nil {
		return errors.Wrap(err, "failed to begin a one-time secondary command buffer")
	}

	b.state = StateRecording
	b.oneTime = true
	return nil
}

// End completes the current recording, leaving the buffer executable.
func (b *Buffer) End() error {
	if b.state != StateRecording {
		panic("command: attempting to end a command buffer that is not recording")
	}

	_, err := b.handle.End()
	if err != nil {
		b.state = StateInvalid
		return errors.Wrap(err, "failed to end a command buffer")
	}

	b.state = StateExecutable
	return nil
}

// Reset returns the buffer to the initial state. Only permitted for buffers
// from pools that allow individual resets, and never while pending.
func (b *Buffer) Reset(flags core1_0.CommandBufferResetFlags) error {
	if !b.category.AllowsBufferReset() {
		panic("command: attempting to reset a command buffer whose pool does not permit buffer resets")
	}
	if b.state == StatePending {
		panic("command: attempting to reset a command buffer that is still pending execution")
	}

	_, err := b.handle.Reset(flags)
	if err != nil {
		return errors.Wrap(err, "failed to reset a command buffer")
	}

	b.state = StateInitial
	b.oneTime = false
	return nil
}

// markPending transitions the buffer to device ownership at submit time.
func (b *Buffer) markPending() {
	if b.state != StateExecutable {
		panic("command: attempting to submit a command buffer that is not executable")
	}

	b.state = StatePending
}

// Complete records that the buffer's submission has finished executing,
// which the caller learns from a fence or timeline wait. One-time buffers
// become invalid; re-submittable recordings stay executable.
func (b *Buffer) Complete() {
	if b.state != StatePending {
		panic("command: attempting to complete a command buffer that was never submitted")
	}

	if b.oneTime {
		b.state = StateInvalid
	} else {
		b.state = StateExecutable
	}
}

// InvalidateForPoolReset marks the buffer initial again after its pool has
// been reset. Pool resets happen at the pool object, so the buffers cannot
// observe them on their own.
func (b *Buffer) InvalidateForPoolReset() {
	if b.state == StatePending {
		panic("command: attempting to reset a pool whose command buffer is still pending execution")
	}

	b.state = StateInitial
	b.oneTime = false
}

// Free returns the buffer to its pool. The buffer must not be pending.
func (b *Buffer) Free() {
	if b.handle == nil {
		return
	}
	if b.state == StatePending {
		panic("command: attempting to free a command buffer that is still pending execution")
	}

	b.device.FreeCommandBuffers([]core1_0.CommandBuffer{b.handle})
	b.handle = nil
	b.device = nil
	b.state = StateInvalid
}
