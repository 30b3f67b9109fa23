// Package preflight verifies the external tools and resources a run needs
// before any network or model work starts.
package preflight
