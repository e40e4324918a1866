package accel

import "github.com/vkngwrapper/core/v2/core1_0"

// Registry constants from the acceleration-structure extension. They apply
// to core 1.0 flag fields, the extension only adds values.
const (
	// BufferUsageAccelerationStructureStorage marks a buffer as the backing
	// store of an acceleration structure.
	BufferUsageAccelerationStructureStorage core1_0.BufferUsageFlags = 0x00100000
	// BufferUsageAccelerationStructureBuildInputReadOnly marks a buffer as
	// read-only build input (vertices, indices, transforms, instances).
	BufferUsageAccelerationStructureBuildInputReadOnly core1_0.BufferUsageFlags = 0x00080000

	// PipelineStageAccelerationStructureBuild is the pipeline stage that
	// executes acceleration-structure builds and copies.
	PipelineStageAccelerationStructureBuild core1_0.PipelineStageFlags = 0x02000000

	// AccessAccelerationStructureRead covers reads of an acceleration
	// structure by builds or traversal.
	AccessAccelerationStructureRead core1_0.AccessFlags = 0x00200000
	// AccessAccelerationStructureWrite covers writes to an acceleration
	// structure by builds and copies.
	AccessAccelerationStructureWrite core1_0.AccessFlags = 0x00400000

	// QueryTypeCompactedSize is the query type that reports the compacted
	// size of an acceleration structure.
	QueryTypeCompactedSize core1_0.QueryType = 1000150000
)

// StructureType distinguishes the two levels of the acceleration-structure
// hierarchy.
type StructureType int32

const (
	// StructureTypeTopLevel structures hold instances of bottom-level
	// structures.
	StructureTypeTopLevel StructureType = iota
	// StructureTypeBottomLevel structures hold geometry.
	StructureTypeBottomLevel
)

var structureTypeNames = make(map[StructureType]string)

func init() {
	structureTypeNames[StructureTypeTopLevel] = "StructureTypeTopLevel"
	structureTypeNames[StructureTypeBottomLevel] = "StructureTypeBottomLevel"
}

func (t StructureType) String() string {
	return structureTypeNames[t]
}

// BuildFlags mirror the extension's build flag bits.
type BuildFlags int32

const (
	// BuildAllowUpdate permits incremental rebuilds.
	BuildAllowUpdate BuildFlags = 1 << iota
	// BuildAllowCompaction permits compacting the structure after build.
	// Required for a compaction size query.
	BuildAllowCompaction
	// BuildPreferFastTrace optimizes the build for traversal speed.
	BuildPreferFastTrace
	// BuildPreferFastBuild optimizes the build for build speed.
	BuildPreferFastBuild
	// BuildLowMemory trades build speed for scratch memory.
	BuildLowMemory
)

// GeometryFlags mirror the extension's geometry flag bits.
type GeometryFlags int32

const (
	// GeometryOpaque geometry never invokes any-hit shading.
	GeometryOpaque GeometryFlags = 1 << iota
	// GeometryNoDuplicateAnyHit guarantees at most one any-hit invocation
	// per primitive per ray.
	GeometryNoDuplicateAnyHit
)
