package forge

import (
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/forge/accel"
	"github.com/vkngwrapper/forge/command"
	"github.com/vkngwrapper/forge/descriptor"
	"golang.org/x/exp/slog"
)

// MaxFramesInFlight is the number of frames the engine records ahead of the
// device.
const MaxFramesInFlight = command.MaxFramesInFlight

// Queue pairs a queue handle with the family it was retrieved from.
type Queue struct {
	Queue       core1_0.Queue
	FamilyIndex int
}

// ContextOptions names everything the owning application supplies to the
// engine core once at startup.
type ContextOptions struct {
	PhysicalDevice core1_0.PhysicalDevice
	Device         core1_0.Device

	// GraphicsQueue is the queue the command pool quartet is created
	// against and the default submission target.
	GraphicsQueue Queue
	// ComputeQueue optionally names a distinct async compute queue. Leave
	// zero to reuse the graphics queue.
	ComputeQueue Queue

	// AccelProcedures and DescriptorProcedures expose the extension entry
	// points this module has no wrapper binding for. Either may be nil when
	// the matching feature goes unused.
	AccelProcedures      accel.Procedures
	DescriptorProcedures descriptor.Procedures

	// Timeline overrides the host timeline-semaphore operations, mainly for
	// tests. Left nil, the device's 1.2 entry points are used.
	Timeline command.Timeline

	Logger *slog.Logger
}

// Context is the engine core's shared state: the device, its memory layout,
// the submission queues, the command pool quartet, and the
// environment-supplied procedure tables. It is read-only after creation and
// safe to share.
type Context struct {
	PhysicalDevice   core1_0.PhysicalDevice
	Device           core1_0.Device
	MemoryProperties *core1_0.PhysicalDeviceMemoryProperties

	Graphics Queue
	Compute  Queue

	Pools    *Pools
	Timeline command.Timeline

	AccelProcedures      accel.Procedures
	DescriptorProcedures descriptor.Procedures

	Logger *slog.Logger
}

// NewContext snapshots the device's memory layout and builds the command
// pool quartet. The timeline operations come from the device's 1.2 entry
// points unless o.Timeline overrides them; a device without them is only an
// error when no override is supplied.
func NewContext(o ContextOptions) (*Context, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	memoryProperties := o.PhysicalDevice.MemoryProperties()

	timeline := o.Timeline
	if timeline == nil {
		var err error
		timeline, err = command.NewTimeline(o.Device)
		if err != nil {
			return nil, err
		}
	}

	compute := o.ComputeQueue
	if compute.Queue == nil {
		compute = o.GraphicsQueue
	}

	pools, err := NewCommandPools(o.Device, o.GraphicsQueue.FamilyIndex)
	if err != nil {
		return nil, err
	}

	logger.Debug("created an engine context",
		slog.Int("graphicsQueueFamily", o.GraphicsQueue.FamilyIndex),
		slog.Int("computeQueueFamily", compute.FamilyIndex),
	)

	return &Context{
		PhysicalDevice:   o.PhysicalDevice,
		Device:           o.Device,
		MemoryProperties: memoryProperties,

		Graphics: o.GraphicsQueue,
		Compute:  compute,

		Pools:    pools,
		Timeline: timeline,

		AccelProcedures:      o.AccelProcedures,
		DescriptorProcedures: o.DescriptorProcedures,

		Logger: logger,
	}, nil
}

// Destroy releases the context's owned objects. The device and queues
// belong to the owning application and are left alone.
func (c *Context) Destroy() {
	if c.Pools != nil {
		c.Pools.Destroy()
		c.Pools = nil
	}
}
