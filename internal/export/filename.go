package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsafeFilename is returned when a requested filename could escape the
// flat download directory.
var ErrUnsafeFilename = errors.New("unsafe filename")

// NewArtifactName returns a fresh server-generated artifact filename.
// Artifact names are never derived from user input.
func NewArtifactName() string {
	return fmt.Sprintf("export-%s.zip", uuid.NewString())
}

// SafeFilename validates that name is a bare filename with no path
// components and returns it unchanged. Used wherever a filename crosses a
// trust boundary (download requests, webhook payloads).
func SafeFilename(name string) (string, error) {
	if name == "" ||
		name != filepath.Base(name) ||
		strings.ContainsAny(name, `/\`) ||
		strings.HasPrefix(name, ".") {
		return "", ErrUnsafeFilename
	}
	return name, nil
}
