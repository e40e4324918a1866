package barrier

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// QueueFamilyIgnored leaves a barrier's queue-family fields unset, meaning
// no ownership transfer takes place.
const QueueFamilyIgnored = -1

// Dependency names the execution and memory scopes a single barrier
// synchronizes between.
type Dependency struct {
	SrcStageMask  core1_0.PipelineStageFlags
	SrcAccessMask core1_0.AccessFlags
	DstStageMask  core1_0.PipelineStageFlags
	DstAccessMask core1_0.AccessFlags
}

// LayoutTransition describes an image layout change carried on an image
// barrier.
type LayoutTransition struct {
	OldLayout core1_0.ImageLayout
	NewLayout core1_0.ImageLayout
}

// Transfer describes a queue-family ownership transfer. Use NoTransfer for
// barriers that keep ownership in place.
type Transfer struct {
	SrcQueueFamilyIndex int
	DstQueueFamilyIndex int
}

// NoTransfer is the Transfer value for barriers that stay on one queue
// family.
var NoTransfer = Transfer{
	SrcQueueFamilyIndex: QueueFamilyIgnored,
	DstQueueFamilyIndex: QueueFamilyIgnored,
}

// Options fixes a Batch's capacity per barrier kind. Capacities never grow
// afterwards, so a batch performs no allocation between Clear calls.
type Options struct {
	MemoryBarrierCapacity int
	BufferBarrierCapacity int
	ImageBarrierCapacity  int
}

// Batch accumulates pipeline barriers and records them all with a single
// CmdPipelineBarrier call. Stage masks are combined across every barrier in
// the batch, so grouping only barriers with related stage scopes keeps the
// recorded dependency tight. A Batch is not safe for concurrent use.
type Batch struct {
	srcStageMask core1_0.PipelineStageFlags
	dstStageMask core1_0.PipelineStageFlags

	memoryBarriers []core1_0.MemoryBarrier
	bufferBarriers []core1_0.BufferMemoryBarrier
	imageBarriers  []core1_0.ImageMemoryBarrier
}

// New creates a Batch with the provided per-kind capacities.
func New(options Options) *Batch {
	return &Batch{
		memoryBarriers: make([]core1_0.MemoryBarrier, 0, options.MemoryBarrierCapacity),
		bufferBarriers: make([]core1_0.BufferMemoryBarrier, 0, options.BufferBarrierCapacity),
		imageBarriers:  make([]core1_0.ImageMemoryBarrier, 0, options.ImageBarrierCapacity),
	}
}

func (b *Batch) combineStages(dep Dependency) {
	b.srcStageMask |= dep.SrcStageMask
	b.dstStageMask |= dep.DstStageMask
}

// AddMemoryBarrier appends a global memory barrier covering every resource.
func (b *Batch) AddMemoryBarrier(dep Dependency) {
	if len(b.memoryBarriers) >= cap(b.memoryBarriers) {
		panic("barrier: attempting to add a memory barrier to a full batch")
	}

	b.combineStages(dep)
	b.memoryBarriers = append(b.memoryBarriers, core1_0.MemoryBarrier{
		SrcAccessMask: dep.SrcAccessMask,
		DstAccessMask: dep.DstAccessMask,
	})
}

// AddBufferBarrier appends a barrier covering size bytes of buffer starting
// at offset, with no queue-family transfer.
func (b *Batch) AddBufferBarrier(buffer core1_0.Buffer, offset, size int, dep Dependency) {
	b.AddBufferBarrierTransfer(buffer, offset, size, dep, NoTransfer)
}

// AddBufferBarrierTransfer appends a buffer barrier that also transfers the
// range's queue-family ownership.
func (b *Batch) AddBufferBarrierTransfer(buffer core1_0.Buffer, offset, size int, dep Dependency, transfer Transfer) {
	if len(b.bufferBarriers) >= cap(b.bufferBarriers) {
		panic("barrier: attempting to add a buffer barrier to a full batch")
	}

	b.combineStages(dep)
	b.bufferBarriers = append(b.bufferBarriers, core1_0.BufferMemoryBarrier{
		SrcAccessMask:       dep.SrcAccessMask,
		DstAccessMask:       dep.DstAccessMask,
		SrcQueueFamilyIndex: transfer.SrcQueueFamilyIndex,
		DstQueueFamilyIndex: transfer.DstQueueFamilyIndex,
		Buffer:              buffer,
		Offset:              offset,
		Size:                size,
	})
}

// AddImageBarrier appends an image barrier performing the given layout
// transition over subresourceRange, with no queue-family transfer.
func (b *Batch) AddImageBarrier(image core1_0.Image, subresourceRange core1_0.ImageSubresourceRange, dep Dependency, transition LayoutTransition) {
	b.AddImageBarrierTransfer(image, subresourceRange, dep, transition, NoTransfer)
}

// AddImageBarrierTransfer appends an image barrier that also transfers the
// image's queue-family ownership.
func (b *Batch) AddImageBarrierTransfer(image core1_0.Image, subresourceRange core1_0.ImageSubresourceRange, dep Dependency, transition LayoutTransition, transfer Transfer) {
	if len(b.imageBarriers) >= cap(b.imageBarriers) {
		panic("barrier: attempting to add an image barrier to a full batch")
	}

	b.combineStages(dep)
	b.imageBarriers = append(b.imageBarriers, core1_0.ImageMemoryBarrier{
		SrcAccessMask:       dep.SrcAccessMask,
		DstAccessMask:       dep.DstAccessMask,
		OldLayout:           transition.OldLayout,
		NewLayout:           transition.NewLayout,
		SrcQueueFamilyIndex: transfer.SrcQueueFamilyIndex,
		DstQueueFamilyIndex: transfer.DstQueueFamilyIndex,
		Image:               image,
		SubresourceRange:    subresourceRange,
	})
}

// IsEmpty returns true when the batch holds no barriers.
func (b *Batch) IsEmpty() bool {
	return len(b.memoryBarriers) == 0 && len(b.bufferBarriers) == 0 && len(b.imageBarriers) == 0
}

// Record issues every accumulated barrier as one CmdPipelineBarrier command
// on cmd, using the union of the added stage masks. Recording an empty batch
// is a no-op. The batch contents survive Record, so the same batch can be
// recorded into several command buffers before being cleared.
func (b *Batch) Record(cmd core1_0.CommandBuffer) error {
	if b.IsEmpty() {
		return nil
	}

	err := cmd.CmdPipelineBarrier(
		b.srcStageMask,
		b.dstStageMask,
		0,
		b.memoryBarriers,
		b.bufferBarriers,
		b.imageBarriers,
	)
	if err != nil {
		return errors.Wrap(err, "failed to record a pipeline barrier")
	}

	return nil
}

// Clear empties the batch for reuse without releasing its capacity.
func (b *Batch) Clear() {
	b.srcStageMask = 0
	b.dstStageMask = 0
	b.memoryBarriers = b.memoryBarriers[:0]
	b.bufferBarriers = b.bufferBarriers[:0]
	b.imageBarriers = b.imageBarriers[:0]
}
