package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "views", ToString("views"))
	assert.Equal(t, "42", ToString(42))
	assert.Equal(t, "true", ToString(true))
}

func TestToBool(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    bool
		wantErr bool
	}{
		{nil, false, false},
		{true, true, false},
		{"true", true, false},
		{"1", true, false},
		{"false", false, false},
		{0, false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := ToBool(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestToStringMap(t *testing.T) {
	m, err := ToStringMap(map[string]interface{}{
		"money": "<?php echo money($expression); ?>",
		"count": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"money": "<?php echo money($expression); ?>",
		"count": "3",
	}, m)

	m, err = ToStringMap(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = ToStringMap("not a map")
	assert.Error(t, err)
}
