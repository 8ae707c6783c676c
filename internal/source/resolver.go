package source

import "fmt"

// ImportResolver is the host-supplied port for import resolution. The core
// hands it the unresolved import path and the logical path of the importing
// unit; the host returns the source text or an error.
type ImportResolver func(path, importer string) ([]byte, error)

// MapResolver adapts a fixed path→text mapping (tests, stdin compiles).
func MapResolver(m map[string][]byte) ImportResolver {
	return func(path, importer string) ([]byte, error) {
		if text, ok := m[path]; ok {
			return text, nil
		}
		return nil, fmt.Errorf("source %q not supplied (imported from %q)", path, importer)
	}
}
