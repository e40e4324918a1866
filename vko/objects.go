package vko

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// Creation helpers for every handle kind the render suite uses. Each helper
// forwards to the matching device entry point and binds the destruction
// deleter at creation time, so a handle can never outlive the knowledge of
// how to free it. Failures are returned with the driver's result code
// attached by the underlying call and the call site attached here.

func CreateBuffer(device core1_0.Device, o core1_0.BufferCreateInfo) (Unique[core1_0.Buffer], error) {
	buffer, _, err := device.CreateBuffer(nil, o)
	if err != nil {
		return Unique[core1_0.Buffer]{}, errors.Wrap(err, "failed to create a buffer")
	}

	return NewUnique[core1_0.Buffer](buffer, func() { buffer.Destroy(nil) }), nil
}

func CreateImage(device core1_0.Device, o core1_0.ImageCreateInfo) (Unique[core1_0.Image], error) {
	image, _, err := device.CreateImage(nil, o)
	if err != nil {
		return Unique[core1_0.Image]{}, errors.Wrap(err, "failed to create an image")
	}

	return NewUnique[core1_0.Image](image, func() { image.Destroy(nil) }), nil
}

func CreateImageView(device core1_0.Device, o core1_0.ImageViewCreateInfo) (Unique[core1_0.ImageView], error) {
	view, _, err := device.CreateImageView(nil, o)
	if err != nil {
		return Unique[core1_0.ImageView]{}, errors.Wrap(err, "failed to create an image view")
	}

	return NewUnique[core1_0.ImageView](view, func() { view.Destroy(nil) }), nil
}

func CreateSampler(device core1_0.Device, o core1_0.SamplerCreateInfo) (Unique[core1_0.Sampler], error) {
	sampler, _, err := device.CreateSampler(nil, o)
	if err != nil {
		return Unique[core1_0.Sampler]{}, errors.Wrap(err, "failed to create a sampler")
	}

	return NewUnique[core1_0.Sampler](sampler, func() { sampler.Destroy(nil) }), nil
}

func CreateShaderModule(device core1_0.Device, o core1_0.ShaderModuleCreateInfo) (Unique[core1_0.ShaderModule], error) {
	module, _, err := device.CreateShaderModule(nil, o)
	if err != nil {
		return Unique[core1_0.ShaderModule]{}, errors.Wrap(err, "failed to create a shader module")
	}

	return NewUnique[core1_0.ShaderModule](module, func() { module.Destroy(nil) }), nil
}

func CreatePipelineLayout(device core1_0.Device, o core1_0.PipelineLayoutCreateInfo) (Unique[core1_0.PipelineLayout], error) {
	layout, _, err := device.CreatePipelineLayout(nil, o)
	if err != nil {
		return Unique[core1_0.PipelineLayout]{}, errors.Wrap(err, "failed to create a pipeline layout")
	}

	return NewUnique[core1_0.PipelineLayout](layout, func() { layout.Destroy(nil) }), nil
}

func CreateDescriptorSetLayout(device core1_0.Device, o core1_0.DescriptorSetLayoutCreateInfo) (Unique[core1_0.DescriptorSetLayout], error) {
	layout, _, err := device.CreateDescriptorSetLayout(nil, o)
	if err != nil {
		return Unique[core1_0.DescriptorSetLayout]{}, errors.Wrap(err, "failed to create a descriptor set layout")
	}

	return NewUnique[core1_0.DescriptorSetLayout](layout, func() { layout.Destroy(nil) }), nil
}

func CreateSemaphore(device core1_0.Device, o core1_0.SemaphoreCreateInfo) (Unique[core1_0.Semaphore], error) {
	semaphore, _, err := device.CreateSemaphore(nil, o)
	if err != nil {
		return Unique[core1_0.Semaphore]{}, errors.Wrap(err, "failed to create a semaphore")
	}

	return NewUnique[core1_0.Semaphore](semaphore, func() { semaphore.Destroy(nil) }), nil
}

func CreateFence(device core1_0.Device, o core1_0.FenceCreateInfo) (Unique[core1_0.Fence], error) {
	fence, _, err := device.CreateFence(nil, o)
	if err != nil {
		return Unique[core1_0.Fence]{}, errors.Wrap(err, "failed to create a fence")
	}

	return NewUnique[core1_0.Fence](fence, func() { fence.Destroy(nil) }), nil
}

func CreateCommandPool(device core1_0.Device, o core1_0.CommandPoolCreateInfo) (Unique[core1_0.CommandPool], error) {
	pool, _, err := device.CreateCommandPool(nil, o)
	if err != nil {
		return Unique[core1_0.CommandPool]{}, errors.Wrap(err, "failed to create a command pool")
	}

	return NewUnique[core1_0.CommandPool](pool, func() { pool.Destroy(nil) }), nil
}

func CreateQueryPool(device core1_0.Device, o core1_0.QueryPoolCreateInfo) (Unique[core1_0.QueryPool], error) {
	pool, _, err := device.CreateQueryPool(nil, o)
	if err != nil {
		return Unique[core1_0.QueryPool]{}, errors.Wrap(err, "failed to create a query pool")
	}

	return NewUnique[core1_0.QueryPool](pool, func() { pool.Destroy(nil) }), nil
}

// CommandBufferSet is a batch of command buffers allocated together and
// freed together with one call, which is cheaper than freeing them one at
// a time.
type CommandBufferSet struct {
	device  core1_0.Device
	buffers []core1_0.CommandBuffer
}

// AllocateCommandBuffers allocates o.CommandBufferCount buffers from
// o.CommandPool as a single batch.
func AllocateCommandBuffers(device core1_0.Device, o core1_0.CommandBufferAllocateInfo) (CommandBufferSet, error) {
	buffers, _, err := device.AllocateCommandBuffers(o)
	if err != nil {
		return CommandBufferSet{}, errors.Wrap(err, "failed to allocate command buffers")
	}

	return CommandBufferSet{
		device:  device,
		buffers: buffers,
	}, nil
}

// Buffers returns the allocated command buffers. The set retains ownership.
func (s *CommandBufferSet) Buffers() []core1_0.CommandBuffer {
	return s.buffers
}

// Free returns every buffer in the set to its pool. Safe to call on an
// empty or already-freed set.
func (s *CommandBufferSet) Free() {
	if len(s.buffers) == 0 {
		return
	}

	s.device.FreeCommandBuffers(s.buffers)
	s.buffers = nil
	s.device = nil
}
