package scancursor

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// tokenLength is the token width: 21 characters from [A-Za-z0-9_-].
const tokenLength = 21

// newToken mints a 21-character URL-safe token from uuid.New(): a 16-byte
// version-4 UUID (122 random bits, the version and variant bits fixed),
// base64url-encoded without padding, yields 22 characters, of which the
// first 21 are kept. Collision
// probability across the kept prefix is still far below what any real
// fleet would ever produce.
func newToken() string {
	id := uuid.New()
	encoded := base64.RawURLEncoding.EncodeToString(id[:])
	return encoded[:tokenLength]
}
