package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bladec/pkg/blade"
	"bladec/pkg/watcher"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// project lays out a views tree in a fresh working directory.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	for name, content := range files {
		path := filepath.Join(dir, "views", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func artifacts(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(dir, blade.DefaultCachePath))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bladec dev\n", out)
}

func TestCompileStdout(t *testing.T) {
	dir := project(t, map[string]string{"welcome.blade.php": "Hi {{ $name }}"})

	out, _, err := run(t, "compile", "--stdout", "welcome")
	require.NoError(t, err)
	assert.Equal(t, "Hi <?php echo e($name); ?>", out)
	assert.Empty(t, artifacts(t, dir))
}

func TestCompileByPath(t *testing.T) {
	dir := project(t, map[string]string{"layouts/app.blade.php": "@yield('content')"})

	out, _, err := run(t, "compile", filepath.Join("views", "layouts", "app.blade.php"))
	require.NoError(t, err)
	assert.Contains(t, out, "layouts.app")
	assert.Len(t, artifacts(t, dir), 1)
}

func TestCompileError(t *testing.T) {
	project(t, map[string]string{"broken.blade.php": "@if($x"})

	_, _, err := run(t, "compile", "broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, blade.ErrUnbalancedExpression)
}

func TestBuildAndClear(t *testing.T) {
	dir := project(t, map[string]string{
		"welcome.blade.php":      "@csrf",
		"layouts/app.blade.php":  "@yield('content')",
		"partials/nav.blade.php": "<x-link href=\"/\">Home</x-link>",
	})

	out, _, err := run(t, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Compiled 3 of 3 templates")
	assert.Len(t, artifacts(t, dir), 3)

	out, _, err = run(t, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared")
	assert.Empty(t, artifacts(t, dir))
}

func TestBuildReportsFailures(t *testing.T) {
	dir := project(t, map[string]string{
		"good.blade.php": "ok",
		"bad.blade.php":  "@foreach($items",
	})

	_, stderr, err := run(t, "build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 templates failed")
	assert.Contains(t, stderr, "bad.blade.php")
	assert.Len(t, artifacts(t, dir), 1)
}

func TestBuildWritesMetricsFile(t *testing.T) {
	dir := project(t, map[string]string{"a.blade.php": "a"})
	metricsFile := filepath.Join(dir, "bladec.prom")
	t.Setenv("BLADE_METRICS_FILE", metricsFile)

	_, _, err := run(t, "build")
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "blade_compilations_total")
}

func TestCheckJSON(t *testing.T) {
	project(t, map[string]string{
		"good.blade.php":  "{{ $x }}",
		"bad.blade.php":   "@if($x",
		"loose.blade.php": "<x-alert>never closed",
	})

	out, _, err := run(t, "check", "--json")
	require.ErrorIs(t, err, errCheckFailed)

	var report checkReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Success)
	assert.Equal(t, 3, report.Templates)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, blade.KindUnbalancedExpression, report.Errors[0].Kind)
	assert.True(t, strings.HasSuffix(report.Errors[0].Path, "bad.blade.php"))
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "loose", report.Warnings[0].Template)
}

func TestCheckStrictComponents(t *testing.T) {
	project(t, map[string]string{"loose.blade.php": "<x-alert>never closed"})
	t.Setenv("BLADE_STRICT_COMPONENTS", "true")

	out, _, err := run(t, "check", "loose")
	require.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "no closing tag for <x-alert>")
}

func TestCheckText(t *testing.T) {
	project(t, map[string]string{"good.blade.php": "@if($ok) yes @endif"})

	out, _, err := run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "1 templates OK")
}

func TestConfigDirectives(t *testing.T) {
	dir := project(t, map[string]string{"price.blade.php": "@money($total)"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".bladec.yaml"),
		[]byte("directives:\n  money: \"<?php echo money($expression); ?>\"\n"), 0644))

	out, _, err := run(t, "compile", "--stdout", "price")
	require.NoError(t, err)
	assert.Equal(t, "<?php echo money($total); ?>", out)
}

func TestApplyChanges(t *testing.T) {
	dir := project(t, map[string]string{"page.blade.php": "v1"})
	c := blade.New(blade.Options{Registry: blade.NewRegistry()})
	src := filepath.Join("views", "page.blade.php")

	applyChanges(c, []watcher.ChangeEvent{{Type: watcher.EventTypeModified, Path: src}})
	data, err := os.ReadFile(c.CompiledPath("page"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	applyChanges(c, []watcher.ChangeEvent{{Type: watcher.EventTypeDeleted, Path: src}})
	assert.Empty(t, artifacts(t, dir))

	// paths outside the views tree are ignored
	applyChanges(c, []watcher.ChangeEvent{{Type: watcher.EventTypeModified, Path: "elsewhere.blade.php"}})
	assert.Empty(t, artifacts(t, dir))
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (stand-in for testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
