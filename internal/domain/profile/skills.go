package profile

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// Skills accepts either a comma separated string ("go, sql") or a JSON
// array of strings and always holds the normalized list.
type Skills []string

func (s *Skills) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		*s = NormalizeSkills(raw)
		return nil
	}

	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return &json.UnmarshalTypeError{Value: "skills", Type: reflect.TypeOf(Skills{})}
	}

	*s = NormalizeSkillList(list)
	return nil
}

// NormalizeSkills splits on commas, trims each item and drops empties.
func NormalizeSkills(raw string) Skills {
	return NormalizeSkillList(strings.Split(raw, ","))
}

func NormalizeSkillList(items []string) Skills {
	out := make(Skills, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
