package blade

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Finder maps logical template names to files under the views directory.
// "layouts.app" resolves to <root>/layouts/app<ext>.
type Finder struct {
	root string
	ext  string
}

func NewFinder(root, ext string) *Finder {
	return &Finder{root: root, ext: ext}
}

func (f *Finder) Root() string { return f.root }

// Path resolves a logical name. Names that already carry the template
// extension are treated as paths relative to the views directory.
func (f *Finder) Path(name string) string {
	if strings.HasSuffix(name, f.ext) {
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(f.root, name)
	}
	return filepath.Join(f.root, strings.ReplaceAll(name, ".", string(filepath.Separator))+f.ext)
}

// Name is the inverse of Path for files inside the views directory.
func (f *Finder) Name(path string) (string, bool) {
	if !strings.HasSuffix(path, f.ext) {
		return "", false
	}
	rel, err := filepath.Rel(f.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), f.ext)
	return strings.ReplaceAll(rel, "/", "."), true
}

// Templates lists the logical names of every template under the root.
func (f *Finder) Templates() ([]string, error) {
	var names []string
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if name, ok := f.Name(path); ok {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, ioFailure(f.root, "list templates", err)
	}
	return names, nil
}
