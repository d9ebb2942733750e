package repository

import (
	"errors"

	"artemis/internal/domain/models"

	"github.com/google/uuid"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenKey is the primary cache key holding a serialized TokenRecord.
// Format: "{prefix}:{symbol}". Bit-exact for cross-service interop.
func TokenKey(prefix, symbol string) string {
	return prefix + ":" + symbol
}

// UserMapKey is the secondary key holding the currently active token symbol
// for one (user, end type). Format: "{prefix}:{endType}:{userId}".
func UserMapKey(prefix string, endType models.EndType, userID uuid.UUID) string {
	return prefix + ":" + string(endType) + ":" + userID.String()
}
