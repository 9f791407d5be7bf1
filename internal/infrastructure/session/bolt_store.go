package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
)

const bucketSessions = "sessions"

// BoltStore persists sessions in a bbolt file
type BoltStore struct {
	db     *bolt.DB
	logger *zap.Logger
}

// OpenBoltStore opens (or creates) the session file at path
func OpenBoltStore(path string, logger *zap.Logger) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSessions)); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketSessions, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Session store opened", zap.String("path", path))
	return &BoltStore{db: db, logger: logger}, nil
}

// Get returns the session stored under id
func (s *BoltStore) Get(_ context.Context, id string) (*entity.Session, error) {
	var sess entity.Session
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketSessions)).Get([]byte(id))
		if data == nil {
			return port.ErrSessionNotFound
		}
		return json.Unmarshal(data, &sess)
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Put stores session under id, replacing any previous one
func (s *BoltStore) Put(_ context.Context, id string, session *entity.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).Put([]byte(id), data)
	})
}

// Delete removes the session stored under id
func (s *BoltStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).Delete([]byte(id))
	})
}

// PurgeBefore deletes the sessions opened before cutoff
func (s *BoltStore) PurgeBefore(_ context.Context, cutoff time.Time) (int, error) {
	purged := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSessions))
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var sess entity.Session
			if err := json.Unmarshal(v, &sess); err != nil {
				s.logger.Warn("Dropping unreadable session", zap.ByteString("id", k), zap.Error(err))
				expired = append(expired, append([]byte(nil), k...))
				return nil
			}
			if sess.ExpiredBefore(cutoff) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		// keys are deleted after the walk, bbolt forbids mutating during ForEach
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		purged = len(expired)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return purged, nil
}

// Close closes the underlying file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

var (
	_ port.SessionStore  = (*BoltStore)(nil)
	_ port.SessionPurger = (*BoltStore)(nil)
)
