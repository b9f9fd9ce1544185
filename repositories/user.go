//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"support-relay/errors"
)

type IUserRepository interface {
	Save(user User) error
	Get(userID string) (User, error)
	NameOf(userID string) string
}

// User is the directory record behind the correspondents listing. Accounts
// themselves are managed elsewhere; the relay only reads display names.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

func (u UserRepository) Save(user User) error {
	value, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("user:"+user.ID), value)
	})
}

func (u UserRepository) Get(userID string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:" + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// NameOf resolves a display name, falling back to the raw user id when the
// directory has no record or no name.
func (u UserRepository) NameOf(userID string) string {
	user, err := u.Get(userID)
	if err != nil || user.Name == "" {
		return userID
	}
	return user.Name
}
