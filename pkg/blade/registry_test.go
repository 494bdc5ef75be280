package blade

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRejectsInvalidNames(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"", "bad-name", "has space", "a::", "::b", "x.y"} {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			err := r.RegisterFunc(name, func(string) string { return "" })
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDirectiveName))
		})
	}
	assert.Empty(t, r.Names())
}

func TestRegistryAcceptsNames(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.RegisterFunc("money", func(string) string { return "" }))
	require.NoError(t, r.RegisterFunc("Str::upper", func(string) string { return "" }))
	require.NoError(t, r.RegisterFunc("snake_case_2", func(string) string { return "" }))

	assert.Equal(t, []string{"Str::upper", "money", "snake_case_2"}, r.Names())
}

func TestRegistryRejectsNilExpander(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register("nil", nil))
}

func TestRegistryReplaces(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFunc("v", func(string) string { return "1" }))
	require.NoError(t, r.RegisterFunc("v", func(string) string { return "2" }))

	fn, ok := r.Get("v")
	require.True(t, ok)
	assert.Equal(t, "2", fn.Expand(""))
}

func TestRegisterIf(t *testing.T) {
	c := newTestCompiler(t, Options{})
	require.NoError(t, c.Registry().RegisterIf("disk"))

	got, err := c.CompileString("@disk('local') L @elsedisk('s3') S @else X @enddisk")
	require.NoError(t, err)
	assert.Equal(t,
		"<?php if ($__env->check('disk', 'local')): ?> L <?php elseif ($__env->check('disk', 's3')): ?> S <?php else: ?> X <?php endif; ?>",
		got)

	got, err = c.CompileString("@unlessdisk('local') none @enddisk")
	require.NoError(t, err)
	assert.Equal(t, "<?php if (! $__env->check('disk', 'local')): ?> none <?php endif; ?>", got)
}

func TestTemplateDirective(t *testing.T) {
	assert.Equal(t, "<?php echo money($cents); ?>", TemplateDirective("<?php echo money($expression); ?>").Expand("$cents"))
	assert.Equal(t, "<?php echo strtoupper($s); ?>", TemplateDirective("<?php echo strtoupper(%s); ?>").Expand("$s"))
}

func TestRegistryConcurrentUse(t *testing.T) {
	c := newTestCompiler(t, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("d%d", i)
			assert.NoError(t, c.Registry().RegisterFunc(name, func(string) string { return name }))
			got, err := c.CompileString("@" + name)
			assert.NoError(t, err)
			assert.Equal(t, name, got)
		}(i)
	}
	wg.Wait()
	assert.Len(t, c.Registry().Names(), 8)
}
