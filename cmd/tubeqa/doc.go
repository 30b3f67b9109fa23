// Command tubeqa answers questions about YouTube videos. It downloads and
// transcribes a video's audio, summarizes and indexes the transcript, and
// serves grounded answers interactively, caching artifacts per video URL.
package main
