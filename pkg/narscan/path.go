package narscan

import (
	"fmt"
	"strings"
)

// HashFromPath derives the content hash from a store path.
// "/nix/store/abcd1234-name-1.0" yields "abcd1234".
func HashFromPath(path string) (string, error) {
	basename, ok := strings.CutPrefix(path, StoreDir)
	if !ok {
		return "", fmt.Errorf("path does not start with %s: %w", StoreDir, ErrInvalidPath)
	}

	hash, _, ok := strings.Cut(basename, "-")
	if !ok {
		return "", fmt.Errorf("no - in path basename: %w", ErrInvalidPath)
	}
	if hash == "" {
		return "", fmt.Errorf("empty hash in path basename: %w", ErrInvalidPath)
	}

	return hash, nil
}
