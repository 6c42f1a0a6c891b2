package entity

import "strings"

// FieldRecord maps field names to extracted values. Empty strings mean "not found".
type FieldRecord map[string]string

// Complete reports whether every required field has a non-empty value, and which do not.
func (r FieldRecord) Complete(required []string) (bool, []string) {
	var missing []string
	for _, name := range required {
		if strings.TrimSpace(r[name]) == "" {
			missing = append(missing, name)
		}
	}
	return len(missing) == 0, missing
}

// Clone returns a shallow copy.
func (r FieldRecord) Clone() FieldRecord {
	out := make(FieldRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
