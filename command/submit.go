package command

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_2"
)

// SemaphoreOperation names one semaphore a submission waits on or signals.
// StageMask applies only to waits and restricts which pipeline stages block.
// Value applies only to timeline semaphores; binary semaphores leave it
// zero.
type SemaphoreOperation struct {
	Semaphore core1_0.Semaphore
	StageMask core1_0.PipelineStageFlags
	Value     uint64
}

// SubmitInfo carries the destinations a submission needs.
type SubmitInfo struct {
	Device core1_0.Device
	Queue  core1_0.Queue
}

func hasTimelineValues(ops []SemaphoreOperation) bool {
	for _, op := range ops {
		if op.Value != 0 {
			return true
		}
	}

	return false
}

// Submit packs buffers plus wait and signal operations into a single queue
// submission. Every buffer must be executable; on success they all become
// pending. When fence is non-nil it is reset immediately before the
// submission, so a stale signaled state can never satisfy the wait for this
// submission's completion. Timeline semaphore values, when any operation
// carries one, ride along as a chained timeline submit info.
func Submit(info SubmitInfo, buffers []*Buffer, waitOps, signalOps []SemaphoreOperation, fence core1_0.Fence) error {
	if len(buffers) == 0 {
		panic("command: attempting to submit zero command buffers")
	}

	handles := make([]core1_0.CommandBuffer, 0, len(buffers))
	for _, buffer := range buffers {
		if buffer.State() != StateExecutable {
			panic("command: attempting to submit a command buffer that is not executable")
		}
		handles = append(handles, buffer.Handle())
	}

	if fence != nil {
		_, err := info.Device.ResetFences([]core1_0.Fence{fence})
		if err != nil {
			return errors.Wrap(err, "failed to reset the submission fence")
		}
	}

	waitSemaphores := make([]core1_0.Semaphore, 0, len(waitOps))
	waitStages := make([]core1_0.PipelineStageFlags, 0, len(waitOps))
	for _, op := range waitOps {
		waitSemaphores = append(waitSemaphores, op.Semaphore)
		waitStages = append(waitStages, op.StageMask)
	}

	signalSemaphores := make([]core1_0.Semaphore, 0, len(signalOps))
	for _, op := range signalOps {
		signalSemaphores = append(signalSemaphores, op.Semaphore)
	}

	submit := core1_0.SubmitInfo{
		CommandBuffers:   handles,
		WaitSemaphores:   waitSemaphores,
		WaitDstStageMask: waitStages,
		SignalSemaphores: signalSemaphores,
	}

	if hasTimelineValues(waitOps) || hasTimelineValues(signalOps) {
		waitValues := make([]uint64, 0, len(waitOps))
		for _, op := range waitOps {
			waitValues = append(waitValues, op.Value)
		}

		signalValues := make([]uint64, 0, len(signalOps))
		for _, op := range signalOps {
			signalValues = append(signalValues, op.Value)
		}

		submit.NextOptions = common.NextOptions{
			Next: core1_2.TimelineSemaphoreSubmitInfo{
				WaitSemaphoreValues:   waitValues,
				SignalSemaphoreValues: signalValues,
			},
		}
	}

	_, err := info.Queue.Submit(fence, []core1_0.SubmitInfo{submit})
	if err != nil {
		return errors.Wrap(err, "failed to submit command buffers")
	}

	for _, buffer := range buffers {
		buffer.markPending()
	}

	return nil
}
