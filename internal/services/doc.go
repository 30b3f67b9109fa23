// Package services defines the error taxonomy shared by the external
// capability clients (acquisition, transcription, completion, embedding) and
// the pipeline orchestrator.
//
// Each capability classifies its failures once, at the boundary, by wrapping
// them with one of the sentinel errors here. The orchestrator then decides
// abort-vs-degrade with errors.Is instead of sniffing error strings at every
// call site.
package services
