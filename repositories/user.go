package repositories

import (
	"crm-realtime/domain"
	crmerrors "crm-realtime/errors"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// UserRepository reads the users mirrored from the accounts service.
// Ids are owned by that service, so CreateUser takes them as given.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (u UserRepository) CreateUser(user domain.User) error {
	bytes, err := marshalRecord(map[string]any{
		"id":       formatID(user.ID),
		"username": user.Username,
	})
	if err != nil {
		return err
	}
	return update(u.db, func(txn *badger.Txn) error {
		return txn.Set(key(userKind, user.ID), bytes)
	})
}

func (u UserRepository) GetUsername(id int64) (string, error) {
	var username string
	err := u.db.View(func(txn *badger.Txn) error {
		r, err := readRecord(txn, key(userKind, id))
		if err != nil {
			return err
		}
		username = r.Str("username")
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", &crmerrors.NotExistsError{Kind: "User", ID: id}
	}
	return username, err
}

func (u UserRepository) UserExists(id int64) (bool, error) {
	return exists(u.db, key(userKind, id))
}
