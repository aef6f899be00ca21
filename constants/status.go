package constants

// RecordSource tells which extractor produced a record.
type RecordSource string

const (
	SourceSemantic RecordSource = "semantic" // accepted language-model output
	SourceFallback RecordSource = "fallback" // pattern extractor output
)

// DocumentStatus is the per-document outcome of a batch run.
type DocumentStatus string

const (
	DocumentResolved  DocumentStatus = "RESOLVED"  // record emitted
	DocumentSkipped   DocumentStatus = "SKIPPED"   // no text acquired
	DocumentCancelled DocumentStatus = "CANCELLED" // run cancelled before this document
)
