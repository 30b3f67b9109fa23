// Package embed wraps an OpenAI-compatible embeddings endpoint.
//
// Requests are batched to keep payload sizes bounded and retried with
// exponential backoff on transient failures. Client errors other than
// throttling are permanent and surface immediately.
package embed
