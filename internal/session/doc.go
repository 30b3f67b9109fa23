// Package session runs an interactive question loop over one processed
// video.
//
// Questions are routed by intent: asking about the title or length is
// served from video metadata, asking for a summary returns the cached
// synopsis, and everything else goes through retrieval. Every exchange is
// appended to the session history and to a shared plain-text audit log.
package session
