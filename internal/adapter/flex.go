package adapter

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexFloat decodes a JSON number, a numeric string, or null.
// Market APIs are inconsistent about quoting prices.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		// arrays, objects and booleans read as 0
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// Float returns the value as float64
func (f FlexFloat) Float() float64 { return float64(f) }
