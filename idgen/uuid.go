package idgen

import "github.com/google/uuid"

// UUID returns a random (version 4) identifier.
func UUID() string {
	return uuid.NewString()
}
