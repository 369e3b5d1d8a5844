// Package session persists template variables between invocations.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/neurodesk/hublc/pkg/hubl"
	bolt "go.etcd.io/bbolt"
)

// ErrNoVar is returned by Get when there is no such variable.
var ErrNoVar = errors.New("no such variable")

const bucketVariables = "variables"

// Store is a bbolt database holding one JSON document per variable.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the session database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening session %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketVariables))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing session %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Get reads a single variable.
func (s *Store) Get(name string) (hubl.Value, error) {
	var value hubl.Value
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketVariables)).Get([]byte(name))
		if data == nil {
			return ErrNoVar
		}
		v, err := hubl.ParseJSON(string(data))
		if err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
		value = v
		return nil
	})
	return value, err
}

// Put writes a single variable.
func (s *Store) Put(name string, v hubl.Value) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketVariables)).Put([]byte(name), []byte(hubl.ToJSON(v)))
	})
}

// Load binds every stored variable in scope. Existing bindings with the same
// name are replaced.
func (s *Store) Load(scope *hubl.Scope) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketVariables)).ForEach(func(k, data []byte) error {
			v, err := hubl.ParseJSON(string(data))
			if err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			scope.Set(string(k), v)
			return nil
		})
	})
}

// Save replaces the stored variables with the contents of scope. Values are
// kept as JSON, so numbers that are not finite come back as null.
func (s *Store) Save(scope *hubl.Scope) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketVariables)); err != nil {
			return err
		}
		b, err := tx.CreateBucket([]byte(bucketVariables))
		if err != nil {
			return err
		}
		for _, name := range scope.Names() {
			v, _ := scope.Get(name)
			if err := b.Put([]byte(name), []byte(hubl.ToJSON(v))); err != nil {
				return err
			}
		}
		return nil
	})
}
