// Package llm wraps an OpenAI-compatible chat-completions endpoint for
// summarization and question answering.
//
// The client owns transient-failure retries with exponential backoff,
// honors Retry-After on throttled responses, and classifies quota and
// rate-limit rejections as services.ErrRateLimited at this boundary so the
// pipeline can degrade instead of inspecting provider errors ad hoc.
package llm
