package models

// User represents a registered user.
type User struct {
	// ID is the unique identifier for this user.
	ID string `json:"id"`
	// Username is the unique display name.
	Username string `json:"username"`
	// ClerkID is the external identity-provider ID, if synced.
	ClerkID string `json:"clerkId,omitempty"`
}
