package accel

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"
	"github.com/vkngwrapper/forge/barrier"
	"github.com/vkngwrapper/forge/vko"
	"golang.org/x/exp/slog"
)

// CompactionQuery names the query-pool slot a build writes its compacted
// size into.
type CompactionQuery struct {
	Pool  core1_0.QueryPool
	Index int
}

// BuildInfo configures one acceleration-structure build.
type BuildInfo struct {
	Device           core1_0.Device
	MemoryProperties *core1_0.PhysicalDeviceMemoryProperties
	Procedures       Procedures

	Type  StructureType
	Flags BuildFlags

	Geometries []Geometry
	Ranges     []RangeInfo

	// CompactionQuery, when set, makes the build record a compacted-size
	// query after a barrier ordering the build's writes before the query's
	// reads. Requires BuildAllowCompaction in Flags.
	CompactionQuery *CompactionQuery

	Logger *slog.Logger
}

// AccelStruct owns a built acceleration structure and its backing buffer.
type AccelStruct struct {
	device           core1_0.Device
	memoryProperties *core1_0.PhysicalDeviceMemoryProperties
	procedures       Procedures
	logger           *slog.Logger

	structure     Structure
	structureType StructureType
	storage       vko.BufferAllocation
	size          int

	compactionQuery *CompactionQuery
}

// Scratch is the build's scratch buffer. It must stay alive until the
// build's submission completes on the device, then be destroyed by the
// caller.
type Scratch struct {
	allocation vko.BufferAllocation
}

// Destroy releases the scratch buffer. Only safe once the build that used
// it has completed.
func (s *Scratch) Destroy() {
	s.allocation.Destroy()
}

// Build records an acceleration-structure build into cmd: it queries the
// footprint, allocates backing and scratch buffers, creates the structure
// handle, and records the build command. When a compaction query is
// requested it also records a barrier covering the build's structure writes
// followed by the size-query write.
//
// The returned structure is not usable until cmd's submission completes.
func Build(cmd core1_0.CommandBuffer, info BuildInfo) (*AccelStruct, *Scratch, error) {
	if len(info.Geometries) != len(info.Ranges) {
		panic("accel: attempting a build with mismatched geometry and range counts")
	}
	if info.CompactionQuery != nil && info.Flags&BuildAllowCompaction == 0 {
		panic("accel: attempting to query compacted size for a build that does not allow compaction")
	}

	logger := info.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxPrimitiveCounts := make([]int, len(info.Ranges))
	for i, rangeInfo := range info.Ranges {
		maxPrimitiveCounts[i] = rangeInfo.PrimitiveCount
	}

	sizes, err := info.Procedures.BuildSizes(info.Type, info.Flags, info.Geometries, maxPrimitiveCounts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to query acceleration structure build sizes")
	}

	storage, err := vko.CreateDeviceBuffer(vko.AllocationInfo{
		Device:           info.Device,
		MemoryProperties: info.MemoryProperties,
		Size:             sizes.AccelerationStructureSize,
	}, BufferUsageAccelerationStructureStorage|khr_buffer_device_address.BufferUsageShaderDeviceAddress)
	if err != nil {
		return nil, nil, err
	}

	structure, err := info.Procedures.CreateStructure(storage.Buffer.Handle(), 0, sizes.AccelerationStructureSize, info.Type)
	if err != nil {
		storage.Destroy()
		return nil, nil, errors.Wrap(err, "failed to create an acceleration structure")
	}

	scratch, err := vko.CreateDeviceBuffer(vko.AllocationInfo{
		Device:           info.Device,
		MemoryProperties: info.MemoryProperties,
		Size:             sizes.BuildScratchSize,
	}, core1_0.BufferUsageStorageBuffer|khr_buffer_device_address.BufferUsageShaderDeviceAddress)
	if err != nil {
		structure.Destroy()
		storage.Destroy()
		return nil, nil, err
	}

	scratchAddress := info.Procedures.BufferDeviceAddress(scratch.Buffer.Handle())

	err = info.Procedures.CmdBuild(cmd, structure, info.Type, info.Flags, info.Geometries, info.Ranges, scratchAddress)
	if err != nil {
		scratch.Destroy()
		structure.Destroy()
		storage.Destroy()
		return nil, nil, errors.Wrap(err, "failed to record an acceleration structure build")
	}

	if info.CompactionQuery != nil {
		err = recordCompactionQuery(cmd, info.Procedures, structure, info.CompactionQuery)
		if err != nil {
			scratch.Destroy()
			structure.Destroy()
			storage.Destroy()
			return nil, nil, err
		}
	}

	logger.Debug("recorded an acceleration structure build",
		slog.String("type", info.Type.String()),
		slog.Int("structureSize", sizes.AccelerationStructureSize),
		slog.Int("scratchSize", sizes.BuildScratchSize),
	)

	return &AccelStruct{
		device:           info.Device,
		memoryProperties: info.MemoryProperties,
		procedures:       info.Procedures,
		logger:           logger,

		structure:     structure,
		structureType: info.Type,
		storage:       storage,
		size:          sizes.AccelerationStructureSize,

		compactionQuery: info.CompactionQuery,
	}, &Scratch{allocation: scratch}, nil
}

// recordCompactionQuery orders the build's structure writes before the size
// query's reads, then records the query write itself.
func recordCompactionQuery(cmd core1_0.CommandBuffer, procedures Procedures, structure Structure, query *CompactionQuery) error {
	batch := barrier.New(barrier.Options{MemoryBarrierCapacity: 1})
	batch.AddMemoryBarrier(barrier.Dependency{
		SrcStageMask:  PipelineStageAccelerationStructureBuild,
		SrcAccessMask: AccessAccelerationStructureWrite,
		DstStageMask:  PipelineStageAccelerationStructureBuild,
		DstAccessMask: AccessAccelerationStructureRead,
	})

	err := batch.Record(cmd)
	if err != nil {
		return err
	}

	err = procedures.CmdWriteCompactedSize(cmd, structure, query.Pool, query.Index)
	if err != nil {
		return errors.Wrap(err, "failed to record a compacted size query")
	}

	return nil
}

// DeviceAddress returns the structure's device address.
func (a *AccelStruct) DeviceAddress() uint64 {
	return a.structure.DeviceAddress()
}

// Size returns the byte size of the structure's backing storage.
func (a *AccelStruct) Size() int {
	return a.size
}

// Structure returns the native structure handle.
func (a *AccelStruct) Structure() Structure {
	return a.structure
}

// Destroy releases the structure handle, then its backing buffer.
func (a *AccelStruct) Destroy() {
	if a.structure != nil {
		a.structure.Destroy()
		a.structure = nil
	}

	a.storage.Destroy()
}

// CreateCompactedSizeQueryPool creates a query pool with count
// compacted-size slots.
func CreateCompactedSizeQueryPool(device core1_0.Device, count int) (vko.Unique[core1_0.QueryPool], error) {
	return vko.CreateQueryPool(device, core1_0.QueryPoolCreateInfo{
		QueryType:  QueryTypeCompactedSize,
		QueryCount: count,
	})
}
