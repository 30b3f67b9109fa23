// Package answer turns a question into a grounded response by retrieving
// transcript chunks and completing against them.
//
// Throttled providers degrade to a fixed apology line instead of failing the
// interactive session.
package answer
