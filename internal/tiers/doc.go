// Package tiers holds the model selection policy: which transcription model
// class to use for a given audio duration, and which language-model class to
// answer with for a given transcription tier.
//
// Both selections are pure table lookups. The answer-tier table is
// deliberately not monotonic (the balanced transcription tier maps to the
// cheap answer tier while fast and accurate map to premium); it reproduces
// the original deployment's table and is kept configurable rather than
// corrected in code.
package tiers
