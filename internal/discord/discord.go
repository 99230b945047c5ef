// Package discord is the identity verifier port. The lifecycle service only
// needs to confirm that a user, guild, or role snowflake is real; a
// not-found answer is a value, never an error. Errors are reserved for
// transport failures and translate to upstream_unavailable at the boundary.
package discord

import "context"

// User is the slice of a Discord user profile the service cares about.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
}

// Verifier confirms the existence of external identities.
type Verifier interface {
	// ResolveUser returns the user profile, or (nil, nil) when the id does
	// not resolve.
	ResolveUser(ctx context.Context, userID string) (*User, error)
	// ResolveGuild reports whether the guild id resolves.
	ResolveGuild(ctx context.Context, guildID string) (bool, error)
	// ResolveRole reports whether the role id resolves in any guild the
	// process can see.
	ResolveRole(ctx context.Context, roleID string) (bool, error)
}
