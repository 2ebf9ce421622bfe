package analysis

import (
	"errors"
	"strings"
)

var ErrNoJSONObject = errors.New("no valid JSON found in response")

// ExtractJSONObject returns the text between the first '{' and the last '}'.
// Prose or code fences around the object are discarded.
func ExtractJSONObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return "", ErrNoJSONObject
	}
	return raw[start : end+1], nil
}
