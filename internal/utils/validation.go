package utils

import (
	"errors"
	"regexp"
	"strings"
)

// Train Tracker ids are short numeric strings; anything outside this set is
// rejected before it reaches an upstream query string.
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

const maxIDLength = 32

// ValidateID checks that id is safe to forward upstream.
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > maxIDLength {
		return errors.New("id too long (max 32 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// SplitList flattens repeated and comma separated values into one list,
// trimming whitespace and dropping empty fragments. Order is preserved.
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Unique drops repeated values, keeping the first occurrence of each.
func Unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
