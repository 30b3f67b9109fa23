// Package vectorindex persists chunk embeddings as a flat JSON file and
// serves cosine-similarity retrieval over them.
//
// The corpus for a single video is small enough that a brute-force scan
// beats the operational cost of an external vector store. Writes go through
// a temp file and rename so a crashed build never leaves a truncated index.
package vectorindex
