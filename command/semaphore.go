package command

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_2"
	"github.com/vkngwrapper/forge/vko"
)

// CreateBinarySemaphore creates an ordinary binary semaphore for
// queue-to-queue handoffs.
func CreateBinarySemaphore(device core1_0.Device) (vko.Unique[core1_0.Semaphore], error) {
	return vko.CreateSemaphore(device, core1_0.SemaphoreCreateInfo{})
}

// CreateTimelineSemaphore creates a timeline semaphore whose counter starts
// at initialValue. Requires a 1.2 device or the timeline semaphore feature.
func CreateTimelineSemaphore(device core1_0.Device, initialValue uint64) (vko.Unique[core1_0.Semaphore], error) {
	return vko.CreateSemaphore(device, core1_0.SemaphoreCreateInfo{
		NextOptions: common.NextOptions{
			Next: core1_2.SemaphoreTypeCreateInfo{
				SemaphoreType: core1_2.SemaphoreTypeTimeline,
				InitialValue:  initialValue,
			},
		},
	})
}

// Timeline exposes the host-side timeline semaphore operations. Production
// code gets one from NewTimeline; tests substitute fakes.
type Timeline interface {
	// Wait blocks until every semaphore reaches at least its paired value,
	// or until timeout elapses.
	Wait(timeout time.Duration, semaphores []core1_0.Semaphore, values []uint64) error
	// Signal sets semaphore's counter to value from the host.
	Signal(semaphore core1_0.Semaphore, value uint64) error
	// CounterValue reads semaphore's current counter.
	CounterValue(semaphore core1_0.Semaphore) (uint64, error)
}

type promotedTimeline struct {
	device core1_2.Device
}

// NewTimeline builds a Timeline over device's 1.2 entry points. Returns an
// error if the device does not expose them.
func NewTimeline(device core1_0.Device) (Timeline, error) {
	promoted := core1_2.PromoteDevice(device)
	if promoted == nil {
		return nil, errors.New("device does not expose the 1.2 timeline semaphore entry points")
	}

	return &promotedTimeline{device: promoted}, nil
}

func (t *promotedTimeline) Wait(timeout time.Duration, semaphores []core1_0.Semaphore, values []uint64) error {
	if len(semaphores) != len(values) {
		panic("command: attempting a timeline wait with mismatched semaphore and value counts")
	}

	_, err := t.device.WaitSemaphores(timeout, core1_2.SemaphoreWaitInfo{
		Semaphores: semaphores,
		Values:     values,
	})
	if err != nil {
		return errors.Wrap(err, "failed to wait on timeline semaphores")
	}

	return nil
}

func (t *promotedTimeline) Signal(semaphore core1_0.Semaphore, value uint64) error {
	_, err := t.device.SignalSemaphore(core1_2.SemaphoreSignalInfo{
		Semaphore: semaphore,
		Value:     value,
	})
	if err != nil {
		return errors.Wrap(err, "failed to signal a timeline semaphore")
	}

	return nil
}

func (t *promotedTimeline) CounterValue(semaphore core1_0.Semaphore) (uint64, error) {
	promoted := core1_2.PromoteSemaphore(semaphore)
	if promoted == nil {
		return 0, errors.New("semaphore does not expose the 1.2 counter entry point")
	}

	value, _, err := promoted.CounterValue()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read a timeline semaphore counter")
	}

	return value, nil
}
