// Package whisper shells out to a local whisper.cpp CLI for speech to text,
// with ffprobe for duration probing and ffmpeg for segment extraction.
//
// Model selection is tiered: short videos use a larger model because total
// cost stays small, long videos drop to faster models.
package whisper
