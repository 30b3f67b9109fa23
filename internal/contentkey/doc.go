// Package contentkey derives the cache identity for a source URL.
//
// The key is the first 16 hex characters of the URL's MD5 digest, matching
// the on-disk layout used by earlier deployments. Truncation to 64 bits
// makes collisions possible in principle; at the scale of a personal video
// cache the risk is accepted as negligible.
package contentkey
