package accel

import (
	cerrors "github.com/cockroachdb/errors"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"
	"github.com/vkngwrapper/forge/vko"
	"golang.org/x/exp/slog"
)

// ErrCompactionNotRequested is returned from Compact when the structure was
// built without a compaction size query, so no compacted size exists to
// read.
var ErrCompactionNotRequested = errors.New("acceleration structure was built without a compaction size query")

// CompactedSize blocks until the structure's compacted-size query result is
// available on the host and returns it.
func (a *AccelStruct) CompactedSize() (int, error) {
	if a.compactionQuery == nil {
		return 0, cerrors.Wrap(ErrCompactionNotRequested, "failed to read a compacted size")
	}

	results := make([]byte, 8)
	_, err := a.compactionQuery.Pool.PopulateResults(a.compactionQuery.Index, 1, results, 8,
		core1_0.QueryResultWait|core1_0.QueryResult64Bit)
	if err != nil {
		return 0, cerrors.Wrap(err, "failed to read a compacted size query")
	}

	return int(common.ByteOrder.Uint64(results)), nil
}

// Compact records a compacting copy of this structure into a new
// exact-size structure. It blocks on the host until the compacted size
// written by the build is available, allocates backing storage of exactly
// that size, and records the copy into cmd.
//
// The original structure stays valid and keeps owning its storage; destroy
// it once the copy's submission completes. The compacted structure carries
// no compaction query of its own.
func (a *AccelStruct) Compact(cmd core1_0.CommandBuffer) (*AccelStruct, error) {
	compactedSize, err := a.CompactedSize()
	if err != nil {
		return nil, err
	}

	storage, err := vko.CreateDeviceBuffer(vko.AllocationInfo{
		Device:           a.device,
		MemoryProperties: a.memoryProperties,
		Size:             compactedSize,
	}, BufferUsageAccelerationStructureStorage|khr_buffer_device_address.BufferUsageShaderDeviceAddress)
	if err != nil {
		return nil, err
	}

	structure, err := a.procedures.CreateStructure(storage.Buffer.Handle(), 0, compactedSize, a.structureType)
	if err != nil {
		storage.Destroy()
		return nil, cerrors.Wrap(err, "failed to create a compacted acceleration structure")
	}

	err = a.procedures.CmdCopyCompacted(cmd, a.structure, structure)
	if err != nil {
		structure.Destroy()
		storage.Destroy()
		return nil, cerrors.Wrap(err, "failed to record a compacting copy")
	}

	a.logger.Debug("recorded an acceleration structure compaction",
		slog.Int("originalSize", a.size),
		slog.Int("compactedSize", compactedSize),
	)

	return &AccelStruct{
		device:           a.device,
		memoryProperties: a.memoryProperties,
		procedures:       a.procedures,
		logger:           a.logger,

		structure:     structure,
		structureType: a.structureType,
		storage:       storage,
		size:          compactedSize,
	}, nil
}
