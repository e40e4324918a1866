package accel

import "github.com/vkngwrapper/core/v2/core1_0"

// TrianglesData is triangle-mesh build input, addressed through buffer
// device addresses.
type TrianglesData struct {
	VertexFormat core1_0.Format
	VertexData   uint64
	VertexStride int
	MaxVertex    int

	IndexType core1_0.IndexType
	IndexData uint64

	TransformData uint64
}

// AABBsData is axis-aligned bounding-box build input for procedural
// geometry.
type AABBsData struct {
	Data   uint64
	Stride int
}

// InstancesData is top-level build input referencing bottom-level
// structures.
type InstancesData struct {
	Data            uint64
	ArrayOfPointers bool
}

// Geometry is one build input, a tagged union over the three geometry
// kinds. Exactly one of Triangles, AABBs, and Instances is non-nil.
type Geometry struct {
	Flags GeometryFlags

	Triangles *TrianglesData
	AABBs     *AABBsData
	Instances *InstancesData
}

// RangeInfo selects the primitives one Geometry contributes to a build.
type RangeInfo struct {
	PrimitiveCount  int
	PrimitiveOffset int
	FirstVertex     int
	TransformOffset int
}

// BuildSizes is the device-reported memory footprint of a build.
type BuildSizes struct {
	AccelerationStructureSize int
	UpdateScratchSize         int
	BuildScratchSize          int
}

// Structure is a native acceleration-structure handle. The extension has no
// wrapper binding, so the owning application's Procedures implementation
// supplies these.
type Structure interface {
	// DeviceAddress returns the structure's address for use in instance
	// data and shader tables.
	DeviceAddress() uint64
	// Destroy releases the native handle. The backing buffer is managed
	// separately.
	Destroy()
}

// Procedures exposes the acceleration-structure device entry points. The
// owning application implements it over its loader; tests substitute fakes.
type Procedures interface {
	// BuildSizes queries the footprint of building the described structure.
	// maxPrimitiveCounts pairs with geometries.
	BuildSizes(structureType StructureType, flags BuildFlags, geometries []Geometry, maxPrimitiveCounts []int) (BuildSizes, error)
	// CreateStructure creates a structure handle over size bytes of buffer
	// starting at offset.
	CreateStructure(buffer core1_0.Buffer, offset, size int, structureType StructureType) (Structure, error)
	// CmdBuild records a build of dst from geometries into cmd, using
	// scratch memory at scratchAddress.
	CmdBuild(cmd core1_0.CommandBuffer, dst Structure, structureType StructureType, flags BuildFlags, geometries []Geometry, ranges []RangeInfo, scratchAddress uint64) error
	// CmdWriteCompactedSize records a compacted-size query write for
	// structure into slot query of queryPool.
	CmdWriteCompactedSize(cmd core1_0.CommandBuffer, structure Structure, queryPool core1_0.QueryPool, query int) error
	// CmdCopyCompacted records a compacting copy from src into dst.
	CmdCopyCompacted(cmd core1_0.CommandBuffer, src, dst Structure) error
	// BufferDeviceAddress returns buffer's device address.
	BufferDeviceAddress(buffer core1_0.Buffer) uint64
}
