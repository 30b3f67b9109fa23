package logging

// Standardized attribute keys shared across components.
const (
	// FieldComponent identifies the subsystem emitting the record.
	FieldComponent = "component"

	// FieldContentKey carries the cache identity of the video being processed.
	FieldContentKey = "content_key"

	// FieldSessionID carries the chat session identifier.
	FieldSessionID = "session_id"

	// FieldStage names the pipeline stage a record belongs to.
	FieldStage = "stage"

	// FieldEventType classifies notable events for downstream filtering.
	FieldEventType = "event_type"

	// FieldErrorHint suggests the next step when a warning or error is logged.
	FieldErrorHint = "error_hint"

	// FieldURL carries the source video URL.
	FieldURL = "url"
)
