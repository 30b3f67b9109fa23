// Package pipeline drives a video from URL to an answerable session.
//
// The run is a linear state machine: compute the content key, check the
// cache, then acquire, transcribe, summarize, and index on a miss, writing
// the artifacts back for next time. Capabilities are injected as interfaces
// so each stage can be faked in tests. Chunked transcription is sequential
// to keep one model instance active at a time and to report progress per
// chunk.
package pipeline
