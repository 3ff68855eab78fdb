// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific error strings.
package repository

import "errors"

// ErrEmailExists is returned when a user creation attempt collides with an
// existing account on the case-insensitive email unique index. Handlers
// should translate this into an HTTP 400 response with a fixed message.
var ErrEmailExists = errors.New("email already exists")
