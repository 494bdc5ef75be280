package coerce

import (
	"fmt"

	"github.com/spf13/cast"
)

// ToString converts almost anything to a string. Nil becomes "".
func ToString(input interface{}) string {
	if input == nil {
		return ""
	}
	s, err := cast.ToStringE(input)
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return s
}

// ToBool accepts true/false, 1/0 and the usual string spellings.
func ToBool(input interface{}) (bool, error) {
	if input == nil {
		return false, nil
	}
	b, err := cast.ToBoolE(input)
	if err != nil {
		return false, fmt.Errorf("failed to coerce value '%v' (type %T) to bool", input, input)
	}
	return b, nil
}

// ToStringMap converts a decoded config section to map[string]string.
func ToStringMap(input interface{}) (map[string]string, error) {
	if input == nil {
		return nil, nil
	}
	m, err := cast.ToStringMapE(input)
	if err != nil {
		return nil, fmt.Errorf("failed to coerce value (type %T) to map", input)
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = ToString(v)
	}
	return out, nil
}
