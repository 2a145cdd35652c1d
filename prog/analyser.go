// Package prog provides the Analyser interface for program analyses.
package prog

// Analyser is an interface for static analysis passes.
type Analyser interface {
	// Analyse is the entry point to the static analyser.
	Analyse()
}
