package descriptor

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/memutils"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/forge/vko"
)

// Updater is a short-lived write session against a Table's descriptor
// buffer. Updates land in mapped memory immediately but are not made
// visible to the device until Close, which flushes every written range in
// one batched call. At most one Updater per table may be alive.
type Updater struct {
	table  *Table
	mapped *vko.Mapped
	dirty  []core1_0.MappedMemoryRange
}

// CreateUpdater opens a write session. Opening a second session before the
// first closes is an invariant violation.
func (t *Table) CreateUpdater() (*Updater, error) {
	if t.updaterAlive {
		panic("descriptor: a descriptor table is only allowed to have one updater alive at a time")
	}

	// The whole allocation is mapped, not just the table, so flush ranges
	// aligned out to the non-coherent atom size stay inside the mapped range.
	mapped, err := vko.MapMemory(t.device, t.allocation.Memory.Handle(), 0, t.allocation.MemorySize)
	if err != nil {
		return nil, err
	}

	t.updaterAlive = true
	return &Updater{
		table:  t,
		mapped: mapped,
	}, nil
}

// Update writes one descriptor. The destination byte position is the set's
// table offset, plus the binding's device-reported offset within the set,
// plus arrayLayer descriptors' worth of bytes for arrayed bindings.
func (u *Updater) Update(setIndex, binding, arrayLayer int, data Data) error {
	if u.mapped == nil {
		panic("descriptor: attempting to update through a closed updater")
	}
	if setIndex < 0 || setIndex >= len(u.table.setLayouts) {
		panic("descriptor: attempting to update a descriptor set index outside the table")
	}

	properties := u.table.procedures.Properties()
	size, err := DescriptorSize(properties, data.Type)
	if err != nil {
		return err
	}

	layout := u.table.setLayouts[setIndex]
	position := u.table.offsets[setIndex] +
		u.table.procedures.SetLayoutBindingOffset(layout, binding) +
		arrayLayer*size

	if position+size > u.table.totalSize {
		return errors.Newf("descriptor write at set %d binding %d layer %d overruns the table (%d+%d > %d)",
			setIndex, binding, arrayLayer, position, size, u.table.totalSize)
	}

	err = u.table.procedures.WriteDescriptor(data, u.mapped.Bytes()[position:position+size])
	if err != nil {
		return errors.Wrap(err, "failed to encode a descriptor")
	}

	// Flushed ranges must be aligned to the non-coherent atom size and
	// capped at the end of the allocation
	rangeOffset := memutils.AlignDown(position, u.table.atomSize)
	rangeSize := memutils.AlignUp(size+(position-rangeOffset), u.table.atomSize)
	if rangeOffset+rangeSize > u.table.allocation.MemorySize {
		rangeSize = u.table.allocation.MemorySize - rangeOffset
	}

	u.dirty = append(u.dirty, core1_0.MappedMemoryRange{
		Memory: u.table.allocation.Memory.Handle(),
		Offset: rangeOffset,
		Size:   rangeSize,
	})

	return nil
}

// mergeRanges collapses sorted, overlapping or touching ranges in place.
func mergeRanges(ranges []core1_0.MappedMemoryRange) []core1_0.MappedMemoryRange {
	slices.SortFunc(ranges, func(a, b core1_0.MappedMemoryRange) int {
		return a.Offset - b.Offset
	})

	merged := ranges[:0]
	for _, memRange := range ranges {
		last := len(merged) - 1
		if last >= 0 && memRange.Offset <= merged[last].Offset+merged[last].Size {
			if end := memRange.Offset + memRange.Size; end > merged[last].Offset+merged[last].Size {
				merged[last].Size = end - merged[last].Offset
			}
			continue
		}

		merged = append(merged, memRange)
	}

	return merged
}

// Close flushes every range written during the session in a single call,
// merging overlapping ranges first, then unmaps the buffer and releases the
// session. Closing an already closed updater is a no-op.
func (u *Updater) Close() error {
	if u.mapped == nil {
		return nil
	}

	err := u.mapped.FlushRanges(mergeRanges(u.dirty))

	u.mapped.Close()
	u.mapped = nil
	u.dirty = nil
	u.table.updaterAlive = false

	return err
}
