// Package textutil provides transcript text cleanup and the overlapping
// chunk splitter used to prepare text for the semantic index.
package textutil
