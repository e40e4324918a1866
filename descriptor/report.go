package descriptor

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// BuildLayoutReport writes the table's packed layout as JSON, one entry per
// set with its offset and device-reported size.
func (t *Table) BuildLayoutReport(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	obj.Name("TotalSize").Int(t.totalSize)
	obj.Name("OffsetAlignment").Int(int(t.procedures.Properties().OffsetAlignment))

	sets := obj.Name("Sets").Array()
	for i := range t.offsets {
		set := sets.Object()
		set.Name("Set").Int(i)
		set.Name("Offset").Int(t.offsets[i])
		set.Name("Size").Int(t.sizes[i])
		set.End()
	}
	sets.End()
}

// LayoutReportString renders BuildLayoutReport to a string.
func (t *Table) LayoutReportString() string {
	writer := jwriter.NewWriter()
	t.BuildLayoutReport(&writer)

	return string(writer.Bytes())
}
