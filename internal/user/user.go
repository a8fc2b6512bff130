// Package user defines the user model used throughout the application,
// particularly for authentication and per-user document context storage.
package user

// User represents a registered system user.
// The username is the unique key for both the identity itself and the
// user's document context.
type User struct {
	// Username is the unique identifier of the user.
	Username string

	// Password is the stored credential, compared by exact equality on login.
	Password string
}
