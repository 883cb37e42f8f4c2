// Package corpus loads the golden-file inputs the round-trip tests run
// against. The files live xz-compressed under testdata/ so that a few
// hundred kilobytes of varied input (prose, random bytes, long runs,
// structured records) cost almost nothing in the repository; they are
// inflated on demand through the same xz reader used elsewhere in this
// codebase's lineage for foreign compressed formats.
package corpus

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/therootcompany/xz"
)

// File is one golden input: Name is the testdata-relative path with the
// .xz suffix stripped, Data the inflated content.
type File struct {
	Name string
	Data []byte
}

// Load globs pattern (doublestar syntax, e.g. "**/*.xz") under dir and
// inflates every match.
func Load(dir, pattern string) ([]File, error) {
	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("corpus glob %q: %w", pattern, err)
	}
	var files []File
	for _, m := range matches {
		data, err := inflate(fsys, m)
		if err != nil {
			return nil, fmt.Errorf("corpus %s: %w", m, err)
		}
		files = append(files, File{Name: strings.TrimSuffix(path.Base(m), ".xz"), Data: data})
	}
	return files, nil
}

// LoadDefault loads every .xz file under the package's own testdata.
func LoadDefault() ([]File, error) {
	return Load("testdata", "**/*.xz")
}

func inflate(fsys fs.FS, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := xz.NewReader(f, xz.DefaultDictMax)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
