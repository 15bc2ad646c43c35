package entity

import (
	"encoding/json"
	"strconv"
)

// ProductID identifies a product line. Legacy records carry numeric ids and
// merged records carry string keys, so the type accepts both on decode and
// re-emits integer literals as JSON numbers.
type ProductID string

// ProductIDFromInt converts a numeric identifier to a ProductID.
func ProductIDFromInt(id int) ProductID {
	return ProductID(strconv.Itoa(id))
}

func (p ProductID) String() string {
	return string(p)
}

// Int returns the numeric value of the id, or false when the id is not an
// integer literal.
func (p ProductID) Int() (int, bool) {
	n, err := strconv.Atoi(string(p))
	if err != nil {
		return 0, false
	}
	return n, true
}

// MarshalJSON emits integer ids as JSON numbers and everything else as a
// string, preserving the shape of the legacy store.
func (p ProductID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(p), 10, 64); err == nil {
		if strconv.FormatInt(n, 10) == string(p) {
			return []byte(string(p)), nil
		}
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (p *ProductID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = ProductID(n.String())
	return nil
}
