package descriptor

import (
	"github.com/pkg/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// ErrUnsupportedDescriptorType is returned when a descriptor type has no
// size entry in the device's descriptor-buffer properties.
var ErrUnsupportedDescriptorType = errors.New("descriptor type is not supported in descriptor buffers")

// BufferProperties is the descriptor-buffer slice of the device's limits,
// queried once by the owning application.
type BufferProperties struct {
	// OffsetAlignment is the required alignment of descriptor-set offsets
	// within a descriptor buffer. Always a power of two.
	OffsetAlignment uint

	// NonCoherentAtomSize is the device's nonCoherentAtomSize limit, the
	// required alignment of flushed memory ranges when the descriptor buffer
	// lands on non-coherent memory. Always a power of two; zero is treated
	// as 1.
	NonCoherentAtomSize uint

	UniformBufferDescriptorSize         int
	StorageBufferDescriptorSize         int
	SampledImageDescriptorSize          int
	StorageImageDescriptorSize          int
	CombinedImageSamplerDescriptorSize  int
	SamplerDescriptorSize               int
	AccelerationStructureDescriptorSize int
}

// BufferData identifies a buffer resource for a descriptor write by its
// device address.
type BufferData struct {
	Address uint64
	Range   int
	Format  core1_0.Format
}

// ImageData identifies an image resource for a descriptor write.
type ImageData struct {
	Sampler     core1_0.Sampler
	ImageView   core1_0.ImageView
	ImageLayout core1_0.ImageLayout
}

// Data is one descriptor's payload, a tagged union over the resource kinds
// a descriptor can reference. Exactly the field matching Type is consulted.
type Data struct {
	Type core1_0.DescriptorType

	Buffer                *BufferData
	Image                 *ImageData
	AccelerationStructure uint64
}

// Procedures exposes the descriptor-buffer device entry points and layout
// queries. The owning application implements it over its loader; tests
// substitute fakes.
type Procedures interface {
	// Properties returns the device's descriptor-buffer limits.
	Properties() BufferProperties
	// SetLayoutSize returns the byte size of one descriptor set with the
	// given layout.
	SetLayoutSize(layout core1_0.DescriptorSetLayout) int
	// SetLayoutBindingOffset returns a binding's byte offset from the start
	// of its set.
	SetLayoutBindingOffset(layout core1_0.DescriptorSetLayout, binding int) int
	// WriteDescriptor encodes data's descriptor into dst, which is exactly
	// the descriptor's size.
	WriteDescriptor(data Data, dst []byte) error
}

// DescriptorSize returns the byte size of a single descriptor of the given
// type, or ErrUnsupportedDescriptorType wrapped with the offending type.
func DescriptorSize(properties BufferProperties, descriptorType core1_0.DescriptorType) (int, error) {
	switch descriptorType {
	case core1_0.DescriptorTypeUniformBuffer:
		return properties.UniformBufferDescriptorSize, nil
	case core1_0.DescriptorTypeStorageBuffer:
		return properties.StorageBufferDescriptorSize, nil
	case core1_0.DescriptorTypeSampledImage:
		return properties.SampledImageDescriptorSize, nil
	case core1_0.DescriptorTypeStorageImage:
		return properties.StorageImageDescriptorSize, nil
	case core1_0.DescriptorTypeCombinedImageSampler:
		return properties.CombinedImageSamplerDescriptorSize, nil
	case core1_0.DescriptorTypeSampler:
		return properties.SamplerDescriptorSize, nil
	case DescriptorTypeAccelerationStructure:
		return properties.AccelerationStructureDescriptorSize, nil
	}

	return 0, errors.Wrapf(ErrUnsupportedDescriptorType, "descriptor type is %s", descriptorType)
}
