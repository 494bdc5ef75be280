package blade

import (
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBalanced(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		open    int
		want    string
		wantEnd int
		wantErr bool
	}{
		{
			name:    "simple",
			text:    "($a)",
			want:    "$a",
			wantEnd: 4,
		},
		{
			name:    "quoted parens are ignored",
			text:    `(foo("a)b", 'c\'d'))`,
			want:    `foo("a)b", 'c\'d')`,
			wantEnd: 20,
		},
		{
			name:    "nested calls",
			text:    "@if(count($items) > (1 + 2)) yes",
			open:    3,
			want:    "count($items) > (1 + 2)",
			wantEnd: 28,
		},
		{
			name:    "empty",
			text:    "()",
			want:    "",
			wantEnd: 2,
		},
		{
			name:    "unclosed",
			text:    "($a",
			wantErr: true,
		},
		{
			name:    "closing paren only inside a string",
			text:    "($a == ')'",
			wantErr: true,
		},
		{
			name:    "open index is not a paren",
			text:    "abc",
			open:    1,
			wantErr: true,
		},
		{
			name:    "open index out of range",
			text:    "(",
			open:    5,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, end, err := ExtractBalanced(tt.text, tt.open)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnbalancedExpression))
				var d *Diagnostic
				require.True(t, errors.As(err, &d))
				assert.Equal(t, tt.open, d.Offset)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestSplitArguments(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"empty", "  ", nil},
		{"single", "'x'", []string{"'x'"}},
		{"two", "'name', $value", []string{"'name'", "$value"}},
		{"array argument", "'view', ['a' => 1, 'b' => 2]", []string{"'view'", "['a' => 1, 'b' => 2]"}},
		{"comma in string", `"a,b", c`, []string{`"a,b"`, "c"}},
		{"call argument", "fn($a, $b), $c", []string{"fn($a, $b)", "$c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitArguments(tt.expr))
		})
	}
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "main", stripQuotes("'main'"))
	assert.Equal(t, "main", stripQuotes(` "main" `))
	assert.Equal(t, "'main\"", stripQuotes("'main\""))
	assert.Equal(t, "$name", stripQuotes("$name"))
}

func TestExtractBalancedProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	safe := gen.AlphaString()

	properties.Property("wrapping any paren-free text round-trips", prop.ForAll(
		func(body string) bool {
			got, end, err := ExtractBalanced("("+body+")", 0)
			return err == nil && got == body && end == len(body)+2
		},
		safe,
	))

	properties.Property("nested wrapping keeps the inner expression", prop.ForAll(
		func(body string, depth int) bool {
			inner := strings.Repeat("(", depth) + body + strings.Repeat(")", depth)
			got, _, err := ExtractBalanced("("+inner+") trailing", 0)
			return err == nil && got == inner
		},
		safe,
		gen.IntRange(0, 8),
	))

	properties.Property("a missing close paren is always reported", prop.ForAll(
		func(body string) bool {
			_, _, err := ExtractBalanced("(("+body+")", 0)
			return errors.Is(err, ErrUnbalancedExpression)
		},
		safe,
	))

	properties.TestingRun(t)
}
