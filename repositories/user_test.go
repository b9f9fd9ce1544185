package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"support-relay/errors"
)

func TestUserRepository_Save_And_Get(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(setupTestDB(t))

	user := User{
		ID:        "alice",
		Name:      "Alice",
		Email:     "alice@example.com",
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	req.NoError(repo.Save(user))

	loaded, err := repo.Get("alice")
	req.NoError(err)
	req.Equal(user, loaded)
}

func TestUserRepository_Get_Unknown_User(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(setupTestDB(t))

	_, err := repo.Get("nobody")

	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestUserRepository_NameOf_Falls_Back_To_Id(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(setupTestDB(t))

	// Given a record without a display name
	req.NoError(repo.Save(User{ID: "bob"}))

	// Then unknown and nameless users both resolve to the raw id
	req.Equal("nobody", repo.NameOf("nobody"))
	req.Equal("bob", repo.NameOf("bob"))

	// And a named user resolves to their name
	req.NoError(repo.Save(User{ID: "alice", Name: "Alice"}))
	req.Equal("Alice", repo.NameOf("alice"))
}
