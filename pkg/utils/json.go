package utils

import "encoding/json"

// FlexString decodes from either a JSON string or a JSON number, keeping the
// number's literal form. Legacy writers emit some identifier fields as
// numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
