package catalog

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NumberText holds a numeric form field as text. JSON bodies may send it as
// a number or a string; anything else is kept verbatim so validation can
// report it against the field.
type NumberText string

func (n *NumberText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumberText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		*n = NumberText(b)
		return nil
	}
	*n = NumberText(num.String())
	return nil
}

func (n NumberText) String() string {
	return strings.TrimSpace(string(n))
}
