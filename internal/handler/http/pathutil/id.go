package pathutil

import (
	"errors"
	"strconv"
)

// ErrInvalidID is returned when a path ID is not a positive integer.
var ErrInvalidID = errors.New("invalid id")

// ParseID parses the {id} wildcard of a route such as GET /api/quiz/{id}.
//
//	id, err := ParseID(r.PathValue("id"))
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
