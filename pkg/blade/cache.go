package blade

import (
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bladec/pkg/metrics"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/blake2b"
)

const artifactExt = ".php"

// CompiledPath is the artifact location for a logical template name. The
// file name hashes the name, not the content, so it is stable across edits.
func (c *Compiler) CompiledPath(name string) string {
	sum := blake2b.Sum256([]byte(name))
	base := slug.Make(strings.TrimSuffix(name, c.opts.Extension))
	if base == "" {
		base = "view"
	}
	return filepath.Join(c.opts.CachePath, base+"-"+hex.EncodeToString(sum[:20])+artifactExt)
}

// IsExpired reports whether the artifact must be rebuilt: it is missing,
// either timestamp is unreadable, or the source is newer.
func IsExpired(sourcePath, artifactPath string) bool {
	artifact, err := os.Stat(artifactPath)
	if err != nil {
		return true
	}
	source, err := os.Stat(sourcePath)
	if err != nil {
		return true
	}
	return source.ModTime().After(artifact.ModTime())
}

// Expired is IsExpired for a logical template name.
func (c *Compiler) Expired(name string) bool {
	return IsExpired(c.finder.Path(name), c.CompiledPath(name))
}

// CompileFile compiles sourcePath into artifactPath. The artifact is written
// only after the whole pipeline succeeds, through a rename, so readers never
// see a partial file and a failed compile leaves the old artifact in place.
func (c *Compiler) CompileFile(sourcePath, artifactPath string) error {
	_, err := c.compileFile(sourcePath, artifactPath)
	return err
}

func (c *Compiler) compileFile(sourcePath, artifactPath string) (Result, error) {
	res, err := c.compileSourceFile(sourcePath)
	if err != nil {
		return Result{}, err
	}

	if err := writeAtomic(artifactPath, []byte(res.Code)); err != nil {
		return Result{}, ioFailure(artifactPath, "write artifact", err)
	}
	slog.Debug("Compiled template", "source", sourcePath, "artifact", artifactPath, "bytes", len(res.Code))
	return res, nil
}

// CompileTemplate compiles a logical template in memory. The cache is not touched.
func (c *Compiler) CompileTemplate(name string) (Result, error) {
	return c.compileSourceFile(c.finder.Path(name))
}

func (c *Compiler) compileSourceFile(sourcePath string) (Result, error) {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return Result{}, ioFailure(sourcePath, "read template", err)
	}
	res, err := c.CompileSource(string(source))
	if err != nil {
		return Result{}, withPath(err, sourcePath)
	}
	return res, nil
}

// Compile brings the artifact of a logical template up to date and returns
// its path. Fresh artifacts are left untouched.
func (c *Compiler) Compile(name string) (string, error) {
	artifact := c.CompiledPath(name)
	source := c.finder.Path(name)
	if !IsExpired(source, artifact) {
		metrics.CacheHit()
		return artifact, nil
	}
	metrics.CacheMiss()
	if _, err := c.compileFile(source, artifact); err != nil {
		return "", err
	}
	return artifact, nil
}

// ForceCompile recompiles a logical template regardless of timestamps.
func (c *Compiler) ForceCompile(name string) (Result, error) {
	return c.compileFile(c.finder.Path(name), c.CompiledPath(name))
}

// ClearCache deletes every artifact under the cache directory.
func (c *Compiler) ClearCache() error {
	entries, err := os.ReadDir(c.opts.CachePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return ioFailure(c.opts.CachePath, "read cache directory", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), artifactExt) {
			continue
		}
		path := filepath.Join(c.opts.CachePath, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return ioFailure(path, "remove artifact", err)
		}
		removed++
	}
	slog.Info("Cleared compiled views", "path", c.opts.CachePath, "removed", removed)
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
