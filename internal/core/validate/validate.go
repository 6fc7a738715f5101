// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strconv"
	"strings"
)

// RoomID parses and validates a room id argument.
func RoomID(arg string) (int, error) {
	trimmed := strings.TrimSpace(arg)
	if trimmed == "" {
		return 0, fmt.Errorf("room id is required")
	}

	id, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("room id must be a number, got %q", trimmed)
	}
	if id <= 0 {
		return 0, fmt.Errorf("room id must be positive, got %d", id)
	}
	return id, nil
}
