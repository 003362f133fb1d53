package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"adsreporter/internal/domain"
	"adsreporter/pkg/logger"
)

var (
	bucketSettings = []byte("settings")
	keyAccessToken = []byte("fb_system_user_token")
)

// OpenDB opens (creating if needed) the bbolt file at path.
func OpenDB(path string) (*bolt.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// BoltCredentialStore keeps the single provider access token.
type BoltCredentialStore struct {
	db     *bolt.DB
	logger *logger.Logger
}

var _ domain.CredentialStore = (*BoltCredentialStore)(nil)

func NewBoltCredentialStore(db *bolt.DB, logger *logger.Logger) (*BoltCredentialStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSettings)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create settings bucket: %w", err)
	}
	return &BoltCredentialStore{db: db, logger: logger}, nil
}

// Load returns the stored token, or "" when none is saved.
func (s *BoltCredentialStore) Load(ctx context.Context) (string, error) {
	var token string

	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(bucketSettings).Get(keyAccessToken); data != nil {
			token = string(data)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to load access token: %w", err)
	}
	return token, nil
}

func (s *BoltCredentialStore) Save(ctx context.Context, token string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSettings).Put(keyAccessToken, []byte(token))
	})
	if err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}

	s.logger.WithContext(ctx).Debug("Stored access token")
	return nil
}

// Clear removes the token. Clearing an empty store is not an error.
func (s *BoltCredentialStore) Clear(ctx context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSettings).Delete(keyAccessToken)
	})
	if err != nil {
		return fmt.Errorf("failed to clear access token: %w", err)
	}

	s.logger.WithContext(ctx).Debug("Cleared access token")
	return nil
}
