package command

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_2"
	"github.com/vkngwrapper/core/v2/mocks"
	"github.com/golang/mock/gomock"
)

func TestCreateBinarySemaphore(t *testing.T) {
	ctrl := gomock.NewController(t)

	device := mocks.NewMockDevice(ctrl)
	semaphore := mocks.NewMockSemaphore(ctrl)

	device.EXPECT().CreateSemaphore(gomock.Any(), core1_0.SemaphoreCreateInfo{}).
		Return(semaphore, core1_0.VKSuccess, nil)
	semaphore.EXPECT().Destroy(gomock.Any())

	created, err := CreateBinarySemaphore(device)
	require.NoError(t, err)
	require.Equal(t, semaphore, created.Handle())

	created.Destroy()
}

func TestCreateTimelineSemaphoreChainsType(t *testing.T) {
	ctrl := gomock.NewController(t)

	device := mocks.NewMockDevice(ctrl)
	semaphore := mocks.NewMockSemaphore(ctrl)

	device.EXPECT().CreateSemaphore(gomock.Any(), core1_0.SemaphoreCreateInfo{
		NextOptions: common.NextOptions{
			Next: core1_2.SemaphoreTypeCreateInfo{
				SemaphoreType: core1_2.SemaphoreTypeTimeline,
				InitialValue:  0,
			},
		},
	}).Return(semaphore, core1_0.VKSuccess, nil)

	created, err := CreateTimelineSemaphore(device, 0)
	require.NoError(t, err)
	require.Equal(t, semaphore, created.Handle())
}
