package accel

import "github.com/launchdarkly/go-jsonstream/v3/jwriter"

// BuildReport writes the structure's footprint as JSON.
func (a *AccelStruct) BuildReport(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	obj.Name("Type").String(a.structureType.String())
	obj.Name("Size").Int(a.size)
	obj.Name("CompactionQueried").Bool(a.compactionQuery != nil)
}

// BuildReportString renders BuildReport to a string.
func (a *AccelStruct) BuildReportString() string {
	writer := jwriter.NewWriter()
	a.BuildReport(&writer)

	return string(writer.Bytes())
}
