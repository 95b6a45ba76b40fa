package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
)

// PipelineVersion is mixed into every hash. Bump it when generated code or
// content layout changes so old entries miss.
const PipelineVersion = "contentpipe/1"

// HashSource creates a unique hash for a build-file and everything its
// result depends on:
// - source file content
// - dependency file contents, in the given order
// - processor parameters (sorted by key)
// - pipeline version
func HashSource(sourceFile string, deps []string, params map[string]string) (string, error) {
	h := sha256.New()

	if err := hashInto(h, sourceFile); err != nil {
		return "", fmt.Errorf("failed to hash source file: %w", err)
	}
	for _, dep := range deps {
		h.Write([]byte{0})
		if err := hashInto(h, dep); err != nil {
			return "", fmt.Errorf("failed to hash dependency %s: %w", dep, err)
		}
	}

	for _, k := range slices.Sorted(maps.Keys(params)) {
		fmt.Fprintf(h, "\x00%s=%s", k, params[k])
	}
	h.Write([]byte{0})
	h.Write([]byte(PipelineVersion))

	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashInto(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
