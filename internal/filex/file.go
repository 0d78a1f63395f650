// Package filex contains filesystem helpers shared by the server store and
// the client reader.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// EnsureDir creates dir (and parents) on fs if it does not exist yet and
// fails when a non-directory occupies the path.
func EnsureDir(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	fi, err := fs.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s: not a directory", dir)
	}
	return nil
}

// ExtractExt returns the extension of the base name of filename including the
// leading dot, or "" when there is none. Path components are ignored so a
// client-supplied name cannot smuggle separators into the result.
func ExtractExt(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	ext := filepath.Ext(base)
	if ext == base {
		// dotfile such as ".bashrc"
		return ""
	}
	return ext
}

// Exists reports whether name exists on fs.
func Exists(fs afero.Fs, name string) (bool, error) {
	_, err := fs.Stat(name)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
