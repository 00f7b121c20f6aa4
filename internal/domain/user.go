// Package domain holds the identities, call session state and wire payloads
// shared by the registries and the adapters.
package domain

import (
	"errors"
	"strconv"
	"strings"
)

var ErrUserIDInvalid = errors.New("invalid user id")

// UserID is the externally verified identity of a connected user.
type UserID int64

// SystemUser marks actions not triggered by a connected user (room emptied, shutdown).
const SystemUser UserID = 0

func ParseUserID(raw string) (UserID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrUserIDInvalid
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrUserIDInvalid
	}
	return UserID(id), nil
}

func (u UserID) String() string { return strconv.FormatInt(int64(u), 10) }
