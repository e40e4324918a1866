package descriptor

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/memutils"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/mocks"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"
	"github.com/golang/mock/gomock"
)

var testMemoryProperties = &core1_0.PhysicalDeviceMemoryProperties{
	MemoryTypes: []core1_0.MemoryType{
		{
			PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent,
			HeapIndex:     0,
		},
	},
	MemoryHeaps: []core1_0.MemoryHeap{
		{Size: 1000000},
	},
}

// fakeProcedures stands in for the descriptor-buffer entry points. Every
// write fills its destination with a fill byte so tests can see exactly
// which bytes a descriptor landed on.
type fakeProcedures struct {
	properties     BufferProperties
	layoutSizes    map[core1_0.DescriptorSetLayout]int
	bindingOffsets map[int]int

	fill       byte
	writeCount int
}

func (f *fakeProcedures) Properties() BufferProperties {
	return f.properties
}

func (f *fakeProcedures) SetLayoutSize(layout core1_0.DescriptorSetLayout) int {
	return f.layoutSizes[layout]
}

func (f *fakeProcedures) SetLayoutBindingOffset(layout core1_0.DescriptorSetLayout, binding int) int {
	return f.bindingOffsets[binding]
}

func (f *fakeProcedures) WriteDescriptor(data Data, dst []byte) error {
	for i := range dst {
		dst[i] = f.fill
	}
	f.writeCount++
	return nil
}

type tableFixture struct {
	device     *mocks.MockDevice
	memory     *mocks.MockDeviceMemory
	procedures *fakeProcedures
	layouts    []core1_0.DescriptorSetLayout
	table      *Table
}

// newTableFixture builds a two-set table with device-reported sizes 48 and
// 100 under a 64-byte offset alignment.
func newTableFixture(t *testing.T, ctrl *gomock.Controller) *tableFixture {
	return newTableFixtureMemory(t, ctrl, 0, 192)
}

// newTableFixtureMemory is newTableFixture with an explicit non-coherent
// atom size and backing allocation size.
func newTableFixtureMemory(t *testing.T, ctrl *gomock.Controller, atomSize uint, memorySize int) *tableFixture {
	device := mocks.NewMockDevice(ctrl)
	buffer := mocks.NewMockBuffer(ctrl)
	memory := mocks.EasyMockDeviceMemory(ctrl)

	layoutA := mocks.NewMockDescriptorSetLayout(ctrl)
	layoutB := mocks.NewMockDescriptorSetLayout(ctrl)

	procedures := &fakeProcedures{
		properties: BufferProperties{
			OffsetAlignment:             64,
			NonCoherentAtomSize:         atomSize,
			UniformBufferDescriptorSize: 16,
			StorageBufferDescriptorSize: 16,
		},
		layoutSizes: map[core1_0.DescriptorSetLayout]int{
			layoutA: 48,
			layoutB: 100,
		},
		bindingOffsets: map[int]int{
			0: 0,
			1: 16,
		},
		fill: 0xAB,
	}

	device.EXPECT().CreateBuffer(gomock.Any(), core1_0.BufferCreateInfo{
		Size: 164,
		Usage: BufferUsageResourceDescriptorBuffer |
			khr_buffer_device_address.BufferUsageShaderDeviceAddress,
		SharingMode: core1_0.SharingModeExclusive,
	}).Return(buffer, core1_0.VKSuccess, nil)
	buffer.EXPECT().MemoryRequirements().Return(&core1_0.MemoryRequirements{
		Size:           memorySize,
		Alignment:      64,
		MemoryTypeBits: 0xffffffff,
	})
	device.EXPECT().AllocateMemory(gomock.Any(), core1_0.MemoryAllocateInfo{
		AllocationSize:  memorySize,
		MemoryTypeIndex: 0,
	}).Return(memory, core1_0.VKSuccess, nil)
	buffer.EXPECT().BindBufferMemory(memory, 0).Return(core1_0.VKSuccess, nil)

	table, err := NewTable(TableOptions{
		Device:           device,
		MemoryProperties: testMemoryProperties,
		Procedures:       procedures,
		SetLayouts:       []core1_0.DescriptorSetLayout{layoutA, layoutB},
	})
	require.NoError(t, err)

	return &tableFixture{
		device:     device,
		memory:     memory,
		procedures: procedures,
		layouts:    []core1_0.DescriptorSetLayout{layoutA, layoutB},
		table:      table,
	}
}

func TestTablePacksSetsWithAlignedOffsets(t *testing.T) {
	ctrl := gomock.NewController(t)
	fixture := newTableFixture(t, ctrl)

	// 48 rounds up to 64, the final set stays unaligned
	require.Equal(t, []int{0, 64}, fixture.table.Offsets())
	require.Equal(t, 0, fixture.table.Offset(0))
	require.Equal(t, 64, fixture.table.Offset(1))
	require.Equal(t, 164, fixture.table.Size())
}

func TestTableRejectsBrokenAlignment(t *testing.T) {
	ctrl := gomock.NewController(t)

	device := mocks.NewMockDevice(ctrl)
	layout := mocks.NewMockDescriptorSetLayout(ctrl)

	_, err := NewTable(TableOptions{
		Device:           device,
		MemoryProperties: testMemoryProperties,
		Procedures: &fakeProcedures{
			properties:  BufferProperties{OffsetAlignment: 48},
			layoutSizes: map[core1_0.DescriptorSetLayout]int{layout: 16},
		},
		SetLayouts: []core1_0.DescriptorSetLayout{layout},
	})
	require.ErrorIs(t, err, memutils.PowerOfTwoError)
}

func TestUpdaterWritesAndFlushesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	fixture := newTableFixture(t, ctrl)

	backing := make([]byte, 192)
	fixture.memory.EXPECT().Map(0, 192, core1_0.MemoryMapFlags(0)).
		Return(unsafe.Pointer(&backing[0]), core1_0.VKSuccess, nil)

	updater, err := fixture.table.CreateUpdater()
	require.NoError(t, err)

	buffer := &BufferData{Address: 0xDEAD0000, Range: 256}
	require.NoError(t, updater.Update(0, 0, 0, Data{
		Type:   core1_0.DescriptorTypeUniformBuffer,
		Buffer: buffer,
	}))
	// Set 1 starts at 64, binding 1 sits 16 bytes in, layer 2 adds two
	// 16-byte descriptors: 64+16+32 = 112
	require.NoError(t, updater.Update(1, 1, 2, Data{
		Type:   core1_0.DescriptorTypeStorageBuffer,
		Buffer: buffer,
	}))

	// Nothing reaches the device until Close
	fixture.device.EXPECT().FlushMappedMemoryRanges([]core1_0.MappedMemoryRange{
		{Memory: fixture.memory, Offset: 0, Size: 16},
		{Memory: fixture.memory, Offset: 112, Size: 16},
	}).Return(core1_0.VKSuccess, nil)
	fixture.memory.EXPECT().Unmap()

	require.NoError(t, updater.Close())
	require.Equal(t, 2, fixture.procedures.writeCount)

	for _, i := range []int{0, 15, 112, 127} {
		require.Equal(t, byte(0xAB), backing[i], "byte %d", i)
	}
	for _, i := range []int{16, 64, 111, 128} {
		require.Equal(t, byte(0), backing[i], "byte %d", i)
	}

	// Closing again is harmless
	require.NoError(t, updater.Close())
}

func TestUpdaterAlignsAndMergesFlushRanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	fixture := newTableFixtureMemory(t, ctrl, 64, 192)

	backing := make([]byte, 192)
	fixture.memory.EXPECT().Map(0, 192, core1_0.MemoryMapFlags(0)).
		Return(unsafe.Pointer(&backing[0]), core1_0.VKSuccess, nil)

	updater, err := fixture.table.CreateUpdater()
	require.NoError(t, err)

	buffer := &BufferData{Address: 0xDEAD0000, Range: 256}
	require.NoError(t, updater.Update(0, 0, 0, Data{
		Type:   core1_0.DescriptorTypeUniformBuffer,
		Buffer: buffer,
	}))
	require.NoError(t, updater.Update(1, 1, 0, Data{
		Type:   core1_0.DescriptorTypeStorageBuffer,
		Buffer: buffer,
	}))

	// The 16-byte writes at 0 and 80 align out to [0,64) and [64,128),
	// which touch and flush as one atom-aligned range
	fixture.device.EXPECT().FlushMappedMemoryRanges([]core1_0.MappedMemoryRange{
		{Memory: fixture.memory, Offset: 0, Size: 128},
	}).Return(core1_0.VKSuccess, nil)
	fixture.memory.EXPECT().Unmap()

	require.NoError(t, updater.Close())

	for _, i := range []int{0, 15, 80, 95} {
		require.Equal(t, byte(0xAB), backing[i], "byte %d", i)
	}
	for _, i := range []int{16, 79, 96} {
		require.Equal(t, byte(0), backing[i], "byte %d", i)
	}
}

func TestUpdaterCapsFlushRangeAtAllocationEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	fixture := newTableFixtureMemory(t, ctrl, 64, 170)

	backing := make([]byte, 170)
	fixture.memory.EXPECT().Map(0, 170, core1_0.MemoryMapFlags(0)).
		Return(unsafe.Pointer(&backing[0]), core1_0.VKSuccess, nil)

	updater, err := fixture.table.CreateUpdater()
	require.NoError(t, err)

	// 64+16+4*16 = 144: the write at [144,160) aligns out past the 170-byte
	// allocation, so the flushed range ends exactly at the allocation
	require.NoError(t, updater.Update(1, 1, 4, Data{
		Type:   core1_0.DescriptorTypeStorageBuffer,
		Buffer: &BufferData{Address: 0xDEAD0000, Range: 256},
	}))

	fixture.device.EXPECT().FlushMappedMemoryRanges([]core1_0.MappedMemoryRange{
		{Memory: fixture.memory, Offset: 128, Size: 42},
	}).Return(core1_0.VKSuccess, nil)
	fixture.memory.EXPECT().Unmap()

	require.NoError(t, updater.Close())
}

func TestTableAllowsOneUpdaterAlive(t *testing.T) {
	ctrl := gomock.NewController(t)
	fixture := newTableFixture(t, ctrl)

	backing := make([]byte, 192)
	fixture.memory.EXPECT().Map(0, 192, core1_0.MemoryMapFlags(0)).
		Return(unsafe.Pointer(&backing[0]), core1_0.VKSuccess, nil).
		Times(2)
	fixture.memory.EXPECT().Unmap()

	updater, err := fixture.table.CreateUpdater()
	require.NoError(t, err)

	require.PanicsWithValue(t,
		"descriptor: a descriptor table is only allowed to have one updater alive at a time",
		func() { _, _ = fixture.table.CreateUpdater() },
	)

	require.NoError(t, updater.Close())

	// A closed session frees the slot
	_, err = fixture.table.CreateUpdater()
	require.NoError(t, err)
}

func TestUpdateRejectsUnsupportedDescriptorType(t *testing.T) {
	ctrl := gomock.NewController(t)
	fixture := newTableFixture(t, ctrl)

	backing := make([]byte, 192)
	fixture.memory.EXPECT().Map(0, 192, core1_0.MemoryMapFlags(0)).
		Return(unsafe.Pointer(&backing[0]), core1_0.VKSuccess, nil)
	fixture.memory.EXPECT().Unmap()

	updater, err := fixture.table.CreateUpdater()
	require.NoError(t, err)

	err = updater.Update(0, 0, 0, Data{Type: core1_0.DescriptorTypeInputAttachment})
	require.ErrorIs(t, err, ErrUnsupportedDescriptorType)

	require.NoError(t, updater.Close())
}

func TestDestroyWithLiveUpdaterPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	fixture := newTableFixture(t, ctrl)

	backing := make([]byte, 192)
	fixture.memory.EXPECT().Map(0, 192, core1_0.MemoryMapFlags(0)).
		Return(unsafe.Pointer(&backing[0]), core1_0.VKSuccess, nil)

	_, err := fixture.table.CreateUpdater()
	require.NoError(t, err)

	require.Panics(t, fixture.table.Destroy)
}

func TestLayoutReport(t *testing.T) {
	ctrl := gomock.NewController(t)
	fixture := newTableFixture(t, ctrl)

	require.JSONEq(t,
		`{
			"TotalSize": 164,
			"OffsetAlignment": 64,
			"Sets": [
				{"Set": 0, "Offset": 0, "Size": 48},
				{"Set": 1, "Offset": 64, "Size": 100}
			]
		}`,
		fixture.table.LayoutReportString(),
	)
}
