package utils

import (
	"strconv"
	"strings"

	"tors/backend"
)

// ParseID parses a user-supplied task or category id. Ids are positive
// integers.
func ParseID(s string) (int, error) {
	s = strings.TrimSpace(s)
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, &backend.InvalidInputError{What: "id", Value: s}
	}
	return id, nil
}
