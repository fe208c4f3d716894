package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/san-kum/wallsim/internal/wall"
)

var ErrConfigNotFound = errors.New("storage: configuration not found")

// ConfigStore resolves configuration ids to validated walls. The id of a
// wall is its content hash.
type ConfigStore interface {
	Put(w wall.Configuration) (string, error)
	Get(id string) (wall.Configuration, error)
	List() ([]string, error)
}

const configPrefix = "config/"

type BadgerConfigStore struct {
	db     *badger.DB
	limits wall.Limits
}

func NewBadgerConfigStore(db *badger.DB, limits wall.Limits) *BadgerConfigStore {
	return &BadgerConfigStore{db: db, limits: limits}
}

// Put validates and stores w. Storing the same wall twice is a no-op that
// returns the same id.
func (s *BadgerConfigStore) Put(w wall.Configuration) (string, error) {
	if err := w.Validate(s.limits); err != nil {
		return "", err
	}
	data, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	id := w.Hash()
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(configPrefix+id), data)
	})
	if err != nil {
		return "", fmt.Errorf("store configuration %s: %w", id, err)
	}
	return id, nil
}

func (s *BadgerConfigStore) Get(id string) (wall.Configuration, error) {
	var w wall.Configuration
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(configPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &w)
		})
	})
	if err != nil {
		return nil, err
	}
	if err := w.Validate(s.limits); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *BadgerConfigStore) List() ([]string, error) {
	ids := make([]string, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(configPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(configPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
