//go:build !windows

package registry

import (
	"os"

	"github.com/google/renameio/v2"
)

// writeFile replaces path atomically, so readers never see a partial registry.
func writeFile(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
