// Package report turns a finished desk run into output: a styled terminal
// rendering and a JSON artifact written atomically under a results directory.
package report
