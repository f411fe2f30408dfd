package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ParseID returns id in canonical form, or false when it is not a UUID.
// Entity ids are UUID columns, so anything else can never match a row.
func ParseID(id string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return u.String(), true
}
