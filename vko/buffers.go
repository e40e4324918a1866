package vko

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"
)

// AllocationInfo carries the context a composite allocation needs: the
// device that creates the objects, the physical device memory layout used to
// choose a memory type, and the requested byte size.
type AllocationInfo struct {
	Device           core1_0.Device
	MemoryProperties *core1_0.PhysicalDeviceMemoryProperties
	Size             int
}

// BufferAllocation pairs a buffer with the device memory bound to it. The
// buffer depends on the memory, so Destroy tears down the buffer first and
// frees the memory second. Freeing memory that is still bound to a live
// buffer is undefined at the API level.
type BufferAllocation struct {
	Buffer Unique[core1_0.Buffer]
	Memory Unique[core1_0.DeviceMemory]

	// MemorySize is the byte size of the backing memory allocation, which
	// may exceed the buffer's requested size. Flush ranges may extend to it
	// but never past it.
	MemorySize int
}

// Destroy releases the buffer, then its backing memory.
func (a *BufferAllocation) Destroy() {
	a.Buffer.Destroy()
	a.Memory.Destroy()
}

// ImageAllocation pairs an image with the device memory bound to it, with
// the same destruction-order contract as BufferAllocation.
type ImageAllocation struct {
	Image  Unique[core1_0.Image]
	Memory Unique[core1_0.DeviceMemory]
}

// Destroy releases the image, then its backing memory.
func (a *ImageAllocation) Destroy() {
	a.Image.Destroy()
	a.Memory.Destroy()
}

// FindMemoryType locates a memory type that is permitted by typeBits and
// carries every flag in required.
func FindMemoryType(memoryProperties *core1_0.PhysicalDeviceMemoryProperties, typeBits uint32, required core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range memoryProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if typeBits&typeBit != 0 && memoryType.PropertyFlags&required == required {
			return i, nil
		}
	}

	return 0, errors.Newf("no memory type satisfies type bits 0x%x with properties %s", typeBits, required)
}

func createBufferAllocation(info AllocationInfo, usage core1_0.BufferUsageFlags, required, preferred core1_0.MemoryPropertyFlags) (BufferAllocation, error) {
	buffer, err := CreateBuffer(info.Device, core1_0.BufferCreateInfo{
		Size:        info.Size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return BufferAllocation{}, err
	}

	memRequirements := buffer.Handle().MemoryRequirements()

	memoryTypeIndex, err := FindMemoryType(info.MemoryProperties, memRequirements.MemoryTypeBits, required|preferred)
	if err != nil {
		// Preferred flags are best-effort, required flags are not
		memoryTypeIndex, err = FindMemoryType(info.MemoryProperties, memRequirements.MemoryTypeBits, required)
	}
	if err != nil {
		buffer.Destroy()
		return BufferAllocation{}, err
	}

	memory, _, err := info.Device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		buffer.Destroy()
		return BufferAllocation{}, errors.Wrap(err, "failed to allocate buffer memory")
	}

	_, err = buffer.Handle().BindBufferMemory(memory, 0)
	if err != nil {
		buffer.Destroy()
		memory.Free(nil)
		return BufferAllocation{}, errors.Wrap(err, "failed to bind memory to a buffer")
	}

	return BufferAllocation{
		Buffer:     buffer,
		Memory:     NewUnique[core1_0.DeviceMemory](memory, func() { memory.Free(nil) }),
		MemorySize: memRequirements.Size,
	}, nil
}

// CreateStagingBuffer allocates a host-visible, host-coherent transfer
// source used to upload data to the device.
func CreateStagingBuffer(info AllocationInfo) (BufferAllocation, error) {
	return CreateTransientHostBuffer(info, core1_0.BufferUsageTransferSrc)
}

// CreateTransientHostBuffer allocates a short-lived host-visible buffer for
// arbitrary usage, typically discarded once the device has consumed it.
func CreateTransientHostBuffer(info AllocationInfo, usage core1_0.BufferUsageFlags) (BufferAllocation, error) {
	return createBufferAllocation(info, usage,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent, 0)
}

// CreateDeviceBuffer allocates a device-local buffer that the host never
// maps.
func CreateDeviceBuffer(info AllocationInfo, usage core1_0.BufferUsageFlags) (BufferAllocation, error) {
	return createBufferAllocation(info, usage, core1_0.MemoryPropertyDeviceLocal, 0)
}

// CreateGlobalStorageBuffer allocates a storage buffer that the host writes
// directly and shaders read by device address. Device-local placement is
// preferred but not required, so resizable-BAR style memory is used when
// the implementation exposes it.
func CreateGlobalStorageBuffer(info AllocationInfo) (BufferAllocation, error) {
	return createBufferAllocation(info,
		core1_0.BufferUsageStorageBuffer|khr_buffer_device_address.BufferUsageShaderDeviceAddress,
		core1_0.MemoryPropertyHostVisible, core1_0.MemoryPropertyDeviceLocal)
}

// CreateDescriptorBuffer allocates the packed buffer a descriptor table
// writes descriptors into. It is host-visible so the table can map it, and
// shader-addressable so pipelines can source descriptors from it.
func CreateDescriptorBuffer(info AllocationInfo, usage core1_0.BufferUsageFlags) (BufferAllocation, error) {
	return createBufferAllocation(info,
		usage|khr_buffer_device_address.BufferUsageShaderDeviceAddress,
		core1_0.MemoryPropertyHostVisible, core1_0.MemoryPropertyDeviceLocal)
}

// RecordCopyBuffer records a whole-range copy of size bytes between two
// buffers into cmd.
func RecordCopyBuffer(cmd core1_0.CommandBuffer, source, destination core1_0.Buffer, size int) error {
	err := cmd.CmdCopyBuffer(source, destination, []core1_0.BufferCopy{
		{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to record a buffer copy")
	}

	return nil
}
