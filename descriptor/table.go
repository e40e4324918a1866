package descriptor

import (
	"github.com/vkngwrapper/arsenal/memutils"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/forge/vko"
	"golang.org/x/exp/slog"
)

// DescriptorTypeAccelerationStructure is the descriptor type for
// acceleration structures, from the acceleration-structure extension.
const DescriptorTypeAccelerationStructure core1_0.DescriptorType = 1000150000

// BufferUsageResourceDescriptorBuffer marks a buffer as a descriptor-buffer
// resource heap, from the descriptor-buffer extension.
const BufferUsageResourceDescriptorBuffer core1_0.BufferUsageFlags = 0x00400000

// BufferUsageSamplerDescriptorBuffer marks a buffer as a descriptor-buffer
// sampler heap, from the descriptor-buffer extension.
const BufferUsageSamplerDescriptorBuffer core1_0.BufferUsageFlags = 0x00200000

// TableOptions configures a descriptor table.
type TableOptions struct {
	Device           core1_0.Device
	MemoryProperties *core1_0.PhysicalDeviceMemoryProperties
	Procedures       Procedures

	// SetLayouts lists the descriptor sets the table packs, in buffer
	// order.
	SetLayouts []core1_0.DescriptorSetLayout
	// Usage is ORed into the descriptor buffer's usage flags.
	Usage core1_0.BufferUsageFlags

	Logger *slog.Logger
}

// Table packs every descriptor set of a pipeline into one host-visible
// descriptor buffer. Set offsets are computed once at creation from the
// device-reported layout sizes, with each set except the last rounded up to
// the device's offset alignment. Descriptors are written through short
// Updater sessions, at most one alive at a time.
type Table struct {
	device     core1_0.Device
	procedures Procedures
	logger     *slog.Logger

	setLayouts []core1_0.DescriptorSetLayout
	offsets    []int
	sizes      []int
	totalSize  int
	atomSize   uint

	allocation   vko.BufferAllocation
	updaterAlive bool
}

// NewTable computes the packed layout for o.SetLayouts and allocates the
// descriptor buffer backing it.
func NewTable(o TableOptions) (*Table, error) {
	if len(o.SetLayouts) == 0 {
		panic("descriptor: attempting to create a descriptor table with no set layouts")
	}

	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	properties := o.Procedures.Properties()
	err := memutils.CheckPow2(properties.OffsetAlignment, "descriptor buffer offset alignment")
	if err != nil {
		return nil, err
	}

	atomSize := properties.NonCoherentAtomSize
	if atomSize == 0 {
		atomSize = 1
	}
	err = memutils.CheckPow2(atomSize, "non-coherent atom size")
	if err != nil {
		return nil, err
	}

	sizes := make([]int, len(o.SetLayouts))
	for i, layout := range o.SetLayouts {
		sizes[i] = o.Procedures.SetLayoutSize(layout)
	}

	// Exclusive scan over the aligned sizes. The final set is left
	// unaligned, nothing is placed after it.
	offsets := make([]int, len(sizes))
	for i := 1; i < len(sizes); i++ {
		offsets[i] = memutils.AlignUp(offsets[i-1]+sizes[i-1], properties.OffsetAlignment)
	}
	totalSize := offsets[len(offsets)-1] + sizes[len(sizes)-1]

	allocation, err := vko.CreateDescriptorBuffer(vko.AllocationInfo{
		Device:           o.Device,
		MemoryProperties: o.MemoryProperties,
		Size:             totalSize,
	}, o.Usage|BufferUsageResourceDescriptorBuffer)
	if err != nil {
		return nil, err
	}

	logger.Debug("created a descriptor table",
		slog.Int("sets", len(sizes)),
		slog.Int("totalSize", totalSize),
	)

	return &Table{
		device:     o.Device,
		procedures: o.Procedures,
		logger:     logger,

		setLayouts: o.SetLayouts,
		offsets:    offsets,
		sizes:      sizes,
		totalSize:  totalSize,
		atomSize:   atomSize,

		allocation: allocation,
	}, nil
}

// Offset returns the byte offset of set setIndex within the descriptor
// buffer.
func (t *Table) Offset(setIndex int) int {
	return t.offsets[setIndex]
}

// Offsets returns every set's byte offset, in set order. The slice is the
// table's own and must not be mutated.
func (t *Table) Offsets() []int {
	return t.offsets
}

// Size returns the total byte size of the packed descriptor buffer.
func (t *Table) Size() int {
	return t.totalSize
}

// Buffer returns the descriptor buffer handle for binding.
func (t *Table) Buffer() core1_0.Buffer {
	return t.allocation.Buffer.Handle()
}

// Destroy releases the descriptor buffer and its memory. No updater may be
// alive.
func (t *Table) Destroy() {
	if t.updaterAlive {
		panic("descriptor: attempting to destroy a descriptor table with a live updater")
	}

	t.allocation.Destroy()
}
