package ir

// Version constants for the persisted type records and the pipeline.
const (
	// RecordVersion is the schema version of TypeRecord.
	RecordVersion = "1"

	// PipelineVersion is the contentpipe version; it participates in asset
	// cache keys so a pipeline upgrade invalidates cached outputs.
	PipelineVersion = "0.3.0"
)
