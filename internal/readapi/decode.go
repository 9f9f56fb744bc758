package readapi

import "encoding/json"

// decodeJSONStringArray unmarshals a jsonb array of strings, as stored for
// an update-account transaction's public_keys field.
func decodeJSONStringArray(raw []byte) ([]string, error) {
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
