package vko

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/mocks"
	"github.com/golang/mock/gomock"
)

func TestMappedWriteFlushClose(t *testing.T) {
	ctrl := gomock.NewController(t)

	device := mocks.NewMockDevice(ctrl)
	memory := mocks.EasyMockDeviceMemory(ctrl)

	backing := make([]byte, 256)
	memory.EXPECT().Map(0, 256, core1_0.MemoryMapFlags(0)).
		Return(unsafe.Pointer(&backing[0]), core1_0.VKSuccess, nil)
	device.EXPECT().FlushMappedMemoryRanges([]core1_0.MappedMemoryRange{
		{Memory: memory, Offset: 0, Size: 256},
	}).Return(core1_0.VKSuccess, nil)
	memory.EXPECT().Unmap()

	mapped, err := MapMemory(device, memory, 0, 256)
	require.NoError(t, err)

	view := mapped.Bytes()
	require.Len(t, view, 256)

	view[10] = 0xCD
	require.Equal(t, byte(0xCD), backing[10])

	require.NoError(t, mapped.Flush())

	mapped.Close()
	// A second close must not unmap again
	mapped.Close()
}

func TestMappedFlushRangesSkipsEmptySet(t *testing.T) {
	ctrl := gomock.NewController(t)

	device := mocks.NewMockDevice(ctrl)
	memory := mocks.EasyMockDeviceMemory(ctrl)

	backing := make([]byte, 64)
	memory.EXPECT().Map(0, 64, core1_0.MemoryMapFlags(0)).
		Return(unsafe.Pointer(&backing[0]), core1_0.VKSuccess, nil)
	memory.EXPECT().Unmap()

	mapped, err := MapMemory(device, memory, 0, 64)
	require.NoError(t, err)
	defer mapped.Close()

	require.NoError(t, mapped.FlushRanges(nil))
}

func TestMappedWholeAllocationHasNoByteView(t *testing.T) {
	ctrl := gomock.NewController(t)

	device := mocks.NewMockDevice(ctrl)
	memory := mocks.EasyMockDeviceMemory(ctrl)

	backing := make([]byte, 16)
	memory.EXPECT().Map(0, WholeSize, core1_0.MemoryMapFlags(0)).
		Return(unsafe.Pointer(&backing[0]), core1_0.VKSuccess, nil)
	memory.EXPECT().Unmap()

	mapped, err := MapMemory(device, memory, 0, WholeSize)
	require.NoError(t, err)
	defer mapped.Close()

	require.Panics(t, func() { mapped.Bytes() })
}
