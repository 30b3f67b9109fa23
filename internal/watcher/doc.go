// Package watcher processes video URLs dropped as text files into a
// directory.
//
// Each .txt or .url file holds one URL per line. Files present at startup
// are processed first, then filesystem events drive the rest. Processed
// files are renamed with a .done suffix so restarts do not repeat work.
package watcher
