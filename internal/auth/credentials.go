package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vhtruong/product-catalog/internal/apperr"
)

// User is a statically configured account.
type User struct {
	Username     string
	PasswordHash string
	Roles        []Role
}

// CredentialStore verifies username/password pairs against a static
// user list. Identity verification is a collaborator of the catalog core,
// not part of it; this store stands in for a real identity provider.
type CredentialStore struct {
	users map[string]User
}

// NewCredentialStore constructs a store from the given users.
func NewCredentialStore(users []User) *CredentialStore {
	m := make(map[string]User, len(users))
	for _, u := range users {
		m[u.Username] = u
	}
	return &CredentialStore{users: m}
}

// Authenticate verifies the credentials and returns the caller's principal.
func (s *CredentialStore) Authenticate(username, password string) (Principal, error) {
	u, ok := s.users[username]
	if !ok {
		return Principal{}, apperr.InvalidCredentialsErr
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Principal{}, apperr.InvalidCredentialsErr.WrapParent(err)
	}

	return Principal{
		Subject: u.Username,
		Roles:   u.Roles,
	}, nil
}

// ParseUsers parses user entries of the form
// "username:bcrypt-hash:ROLE1,ROLE2".
func ParseUsers(entries []string) ([]User, error) {
	users := make([]User, 0, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed user entry: %q", entry)
		}

		var roles []Role
		for _, rs := range strings.Split(parts[2], ",") {
			role, err := ParseRole(strings.TrimSpace(rs))
			if err != nil {
				return nil, fmt.Errorf("user %q: %w", parts[0], err)
			}
			roles = append(roles, role)
		}

		users = append(users, User{
			Username:     parts[0],
			PasswordHash: parts[1],
			Roles:        roles,
		})
	}

	return users, nil
}
