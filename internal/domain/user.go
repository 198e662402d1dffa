// Package domain contains the core entities of the presentation configurator.
package domain

// User is an account mirrored from the external identity provider.
// The ID is the provider's stable subject identifier, not something we mint.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
