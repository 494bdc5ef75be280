package blade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Attribute
	}{
		{
			name: "dynamic and boolean",
			text: `:type="'danger'" dismissible`,
			want: []Attribute{
				{Name: "type", Value: "'danger'", Dynamic: true},
				{Name: "dismissible", Value: "true", Boolean: true},
			},
		},
		{
			name: "static values with both quote styles",
			text: `class="btn btn-primary" id='save'`,
			want: []Attribute{
				{Name: "class", Value: "btn btn-primary"},
				{Name: "id", Value: "save"},
			},
		},
		{
			name: "dollar prefix marks dynamic",
			text: `$user="$currentUser"`,
			want: []Attribute{
				{Name: "user", Value: "$currentUser", Dynamic: true},
			},
		},
		{
			name: "dynamic boolean binds a same-named variable",
			text: `:user-id`,
			want: []Attribute{
				{Name: "user-id", Value: "$userId", Dynamic: true, Boolean: true},
			},
		},
		{
			name: "quotes nested inside brackets",
			text: `:items="['a' => "x", 'b' => fn("y")]"`,
			want: []Attribute{
				{Name: "items", Value: `['a' => "x", 'b' => fn("y")]`, Dynamic: true},
			},
		},
		{
			name: "unquoted value",
			text: `:count=$items->count() disabled`,
			want: []Attribute{
				{Name: "count", Value: "$items->count()", Dynamic: true},
				{Name: "disabled", Value: "true", Boolean: true},
			},
		},
		{
			name: "last duplicate wins in first position",
			text: `a="1" b="2" a="3"`,
			want: []Attribute{
				{Name: "a", Value: "3"},
				{Name: "b", Value: "2"},
			},
		},
		{
			name: "namespaced names",
			text: `wire:model="name" @click="open = true"`,
			want: []Attribute{
				{Name: "wire:model", Value: "name"},
				{Name: "@click", Value: "open = true"},
			},
		},
		{
			name: "stray bytes are skipped",
			text: `= " title="x"`,
			want: []Attribute{
				{Name: "title", Value: "x"},
			},
		},
		{
			name: "empty",
			text: "   ",
			want: []Attribute{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAttributes(tt.text)
			assert.Equal(t, tt.want, got.All())
		})
	}
}

func TestAttributesPHP(t *testing.T) {
	attrs := ParseAttributes(`:type="'danger'" dismissible`)
	assert.Equal(t, "['type' => 'danger', 'dismissible' => true]", attrs.PHP())
	assert.Equal(t, []string{"type"}, attrs.DynamicNames())
}

func TestAttributesPHPInterpolatesStaticEchoes(t *testing.T) {
	attrs := ParseAttributes(`class="btn {{ $size }}" title="it's"`)
	assert.Equal(t, `['class' => 'btn '.e($size).'', 'title' => 'it\'s']`, attrs.PHP())
}

func TestAttributesUnescapeStaticQuotes(t *testing.T) {
	attrs := ParseAttributes(`title='it\'s' label="say \"hi\"" :expr="'it\'s'"`)

	title, _ := attrs.Get("title")
	assert.Equal(t, "it's", title.Value)
	label, _ := attrs.Get("label")
	assert.Equal(t, `say "hi"`, label.Value)
	expr, _ := attrs.Get("expr")
	assert.Equal(t, `'it\'s'`, expr.Value)

	assert.Equal(t, `['title' => 'it\'s', 'label' => 'say "hi"', 'expr' => 'it\'s']`, attrs.PHP())
}

func TestAttributesSetGetDelete(t *testing.T) {
	attrs := ParseAttributes(`a="1" b="2" c="3"`)
	require.Equal(t, 3, attrs.Len())

	attrs.Delete("b")
	assert.Equal(t, 2, attrs.Len())
	_, ok := attrs.Get("b")
	assert.False(t, ok)

	c, ok := attrs.Get("c")
	require.True(t, ok)
	assert.Equal(t, "3", c.Value)

	attrs.Set(Attribute{Name: "c", Value: "$x", Dynamic: true})
	c, _ = attrs.Get("c")
	assert.Equal(t, "$x", c.Expression())

	attrs.Delete("missing")
	assert.Equal(t, 2, attrs.Len())
}

func TestCamelVariable(t *testing.T) {
	assert.Equal(t, "userId", camelVariable("user-id"))
	assert.Equal(t, "fooBarBaz", camelVariable("foo_bar.baz"))
	assert.Equal(t, "plain", camelVariable("plain"))
}
