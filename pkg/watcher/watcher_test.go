package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestFilters(t *testing.T) {
	blade := ExtensionFilter(".blade.php")
	assert.True(t, blade("views/welcome.blade.php"))
	assert.False(t, blade("views/welcome.php"))
	assert.False(t, blade("views/notes.txt"))

	assert.True(t, NoHiddenFilter("views/welcome.blade.php"))
	assert.False(t, NoHiddenFilter("views/.welcome.blade.php.swp"))
	assert.False(t, NoHiddenFilter("views/welcome.blade.php~"))
}

func TestDebouncerCoalescesByPath(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Add(ChangeEvent{Type: EventTypeCreated, Path: "b.blade.php"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "a.blade.php"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "b.blade.php"})

	select {
	case events := <-d.Output():
		require.Len(t, events, 2)
		assert.Equal(t, "a.blade.php", events[0].Path)
		assert.Equal(t, "b.blade.php", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer did not flush")
	}
}

func TestTemplateWatcherDeliversChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "layouts"), 0755))

	w, err := New(30 * time.Millisecond)
	require.NoError(t, err)
	w.AddFilter(ExtensionFilter(".blade.php"))
	w.AddFilter(NoHiddenFilter)

	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	w.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		for _, ev := range events {
			seen[filepath.Base(ev.Path)] = true
		}
		return nil
	})
	require.NoError(t, w.AddRecursive(root))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "layouts", "app.blade.php"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["app.blade.php"]
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.False(t, seen["notes.txt"])
	mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
