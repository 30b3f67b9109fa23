// Package ytdlp shells out to yt-dlp to download video audio tracks and
// fetch lightweight video metadata.
//
// Downloads retry with exponential backoff since remote hosts throttle
// intermittently. Metadata is best effort: a failed probe yields placeholder
// fields rather than an error.
package ytdlp
