package vko

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// Mapped is a scoped view of host-visible device memory. It stays valid
// until Close, which unmaps the memory. Writes through the view are not
// visible to the device until flushed, unless the memory is host-coherent.
type Mapped struct {
	device core1_0.Device
	memory core1_0.DeviceMemory
	ptr    unsafe.Pointer
	offset int
	size   int
}

// MapMemory maps size bytes of memory beginning at offset and returns a
// scoped view. Pass WholeSize to map from offset to the end of the
// allocation.
func MapMemory(device core1_0.Device, memory core1_0.DeviceMemory, offset, size int) (*Mapped, error) {
	ptr, _, err := memory.Map(offset, size, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to map device memory")
	}

	return &Mapped{
		device: device,
		memory: memory,
		ptr:    ptr,
		offset: offset,
		size:   size,
	}, nil
}

// Ptr returns the raw host pointer for the mapped range.
func (m *Mapped) Ptr() unsafe.Pointer {
	return m.ptr
}

// Bytes returns the mapped range as a byte slice. Only valid for views
// mapped with an explicit size.
func (m *Mapped) Bytes() []byte {
	if m.size < 0 {
		panic("vko: attempting to slice a whole-allocation mapping with no known size")
	}

	return unsafe.Slice((*byte)(m.ptr), m.size)
}

// Flush makes host writes to the entire mapped range visible to the device.
// Unnecessary on host-coherent memory.
func (m *Mapped) Flush() error {
	size := m.size
	if size < 0 {
		size = WholeSize
	}

	return m.FlushRanges([]core1_0.MappedMemoryRange{
		{
			Memory: m.memory,
			Offset: m.offset,
			Size:   size,
		},
	})
}

// FlushRanges flushes an explicit set of ranges in a single call. Range
// offsets are relative to the start of the memory allocation, not the view.
func (m *Mapped) FlushRanges(ranges []core1_0.MappedMemoryRange) error {
	if len(ranges) == 0 {
		return nil
	}

	_, err := m.device.FlushMappedMemoryRanges(ranges)
	if err != nil {
		return errors.Wrap(err, "failed to flush mapped memory ranges")
	}

	return nil
}

// WholeSize is the Size value for a mapped memory range that extends to the
// end of the allocation.
const WholeSize = common.WholeSize

// Close unmaps the memory. The view and any slices taken from it become
// invalid. Closing twice is a no-op.
func (m *Mapped) Close() {
	if m.ptr == nil {
		return
	}

	m.memory.Unmap()
	m.ptr = nil
	m.memory = nil
	m.device = nil
}
