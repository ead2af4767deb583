// Package stash persists the upload→review hand-off in a small bbolt
// key-value file, keyed by session ID. Records are short-lived: each is
// written once by the upload flow, read by the review flow and deleted
// after a successful save, with a TTL sweep for abandoned reviews.
package stash

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/facturio/invoice-console/internal/application/port"
)

const bucketName = "extractions"

// record wraps a stashed extraction with its write time for TTL checks.
type record struct {
	StashedAt time.Time              `json:"stashed_at"`
	Payload   port.StashedExtraction `json:"payload"`
}

// BoltStash implements port.ExtractionStash using bbolt.
type BoltStash struct {
	db     *bbolt.DB
	ttl    time.Duration
	logger *zap.Logger
}

// NewBoltStash opens (or creates) the stash file at path. A TTL of zero
// disables expiry.
func NewBoltStash(path string, ttl time.Duration, logger *zap.Logger) (*BoltStash, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening stash db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating stash bucket: %w", err)
	}

	return &BoltStash{db: db, ttl: ttl, logger: logger}, nil
}

// Put stores the pending extraction for a session, replacing any
// previous one.
func (s *BoltStash) Put(ctx context.Context, sessionID string, stashed port.StashedExtraction) error {
	rec := record{StashedAt: time.Now().UTC(), Payload: stashed}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling stash record: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(sessionID), data)
	})
	if err != nil {
		return fmt.Errorf("writing stash record: %w", err)
	}

	s.logger.Debug("Stashed extraction",
		zap.String("session_id", sessionID),
		zap.String("filename", stashed.Filename))
	return nil
}

// Get retrieves the pending extraction for a session. An expired record
// is deleted and reported as absent.
func (s *BoltStash) Get(ctx context.Context, sessionID string) (*port.StashedExtraction, error) {
	var rec record
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(sessionID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("reading stash record: %w", err)
	}
	if !found {
		return nil, port.ErrNoStash
	}

	if s.ttl > 0 && time.Since(rec.StashedAt) > s.ttl {
		if err := s.Clear(ctx, sessionID); err != nil {
			s.logger.Warn("Failed to drop expired stash record",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
		return nil, port.ErrNoStash
	}

	return &rec.Payload, nil
}

// Clear removes the pending extraction for a session. Clearing an absent
// record is not an error.
func (s *BoltStash) Clear(ctx context.Context, sessionID string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(sessionID))
	})
	if err != nil {
		return fmt.Errorf("deleting stash record: %w", err)
	}
	return nil
}

// SweepExpired deletes every record older than the TTL and returns the
// number removed. With a zero TTL it is a no-op.
func (s *BoltStash) SweepExpired(ctx context.Context) (int, error) {
	if s.ttl == 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().Add(-s.ttl)
	removed := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		cursor := bucket.Cursor()
		for key, data := cursor.First(); key != nil; key, data = cursor.Next() {
			var rec record
			if err := json.Unmarshal(data, &rec); err != nil {
				// An unreadable record is dropped with the expired ones
				s.logger.Warn("Dropping unreadable stash record",
					zap.String("session_id", string(key)),
					zap.Error(err))
			} else if rec.StashedAt.After(cutoff) {
				continue
			}
			if err := cursor.Delete(); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("sweeping stash records: %w", err)
	}
	return removed, nil
}

// Close closes the underlying database.
func (s *BoltStash) Close() error {
	return s.db.Close()
}
