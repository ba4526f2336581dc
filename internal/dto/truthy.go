package dto

import (
	"bytes"
	"encoding/json"
	"strings"
)

var truthyValues = map[string]struct{}{
	"true": {}, "True": {}, "TRUE": {},
	"1":  {},
	"on": {}, "yes": {}, "y": {}, "t": {},
}

// IsTruthy reports whether a form value is one of the recognised truthy tokens.
func IsTruthy(raw string) bool {
	_, ok := truthyValues[strings.TrimSpace(raw)]
	return ok
}

// Truthy decodes form strings and JSON scalars into a boolean.
// Anything outside the recognised token set is false.
type Truthy bool

// UnmarshalJSON accepts booleans, numbers and strings.
func (t *Truthy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Truthy(IsTruthy(s))
		return nil
	}
	*t = Truthy(IsTruthy(string(data)))
	return nil
}

// UnmarshalParam is used by gin form binding.
func (t *Truthy) UnmarshalParam(param string) error {
	*t = Truthy(IsTruthy(param))
	return nil
}

// Bool returns the decoded value.
func (t Truthy) Bool() bool {
	return bool(t)
}
