// Package prefs stores per-visitor preferences: liked posts and recent
// searches. Every operation is best effort. Failures are logged at debug
// level and read as "no preference".
package prefs

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	bolt "go.etcd.io/bbolt"
)

// MaxRecentSearches caps the recent search list.
const MaxRecentSearches = 5

var (
	bLikes      = []byte("folio:likes")
	bLikeCounts = []byte("folio:like-counts")
	bSearches   = []byte("folio:recent-searches")
)

// Store is a bbolt-backed preference store. A nil *Store is valid and
// remembers nothing.
type Store struct {
	db     *bolt.DB
	logger echo.Logger
}

// Open opens (or creates) the preference database at path.
func Open(path string, logger echo.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("prefs: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bLikes, bSearches} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		if tx.Bucket(bLikeCounts) == nil {
			return rebuildLikeCounts(tx)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Liked reports whether visitor likes postID.
func (s *Store) Liked(visitor, postID string) bool {
	if s == nil || visitor == "" || postID == "" {
		return false
	}
	var liked bool
	err := s.db.View(func(tx *bolt.Tx) error {
		vb := tx.Bucket(bLikes).Bucket([]byte(visitor))
		liked = vb != nil && vb.Get([]byte(postID)) != nil
		return nil
	})
	s.fail("liked", err)
	return liked
}

// ToggleLike flips visitor's like on postID and returns the new state.
func (s *Store) ToggleLike(visitor, postID string) bool {
	if s == nil || visitor == "" || postID == "" {
		return false
	}
	var liked bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		vb, err := tx.Bucket(bLikes).CreateBucketIfNotExists([]byte(visitor))
		if err != nil {
			return err
		}
		key := []byte(postID)
		if vb.Get(key) != nil {
			if err := vb.Delete(key); err != nil {
				return err
			}
			return addLikeCount(tx.Bucket(bLikeCounts), key, -1)
		}
		liked = true
		if err := vb.Put(key, []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
			return err
		}
		return addLikeCount(tx.Bucket(bLikeCounts), key, 1)
	})
	if s.fail("toggle like", err) {
		return false
	}
	return liked
}

// LikeCount returns how many visitors like postID.
func (s *Store) LikeCount(postID string) int {
	if s == nil || postID == "" {
		return 0
	}
	var n uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		n = decodeCount(tx.Bucket(bLikeCounts).Get([]byte(postID)))
		return nil
	})
	if s.fail("like count", err) {
		return 0
	}
	return int(n)
}

func decodeCount(raw []byte) uint64 {
	if len(raw) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}

// addLikeCount moves the counter for key by delta, never below zero.
func addLikeCount(b *bolt.Bucket, key []byte, delta int) error {
	n := decodeCount(b.Get(key))
	switch {
	case delta > 0:
		n += uint64(delta)
	case uint64(-delta) >= n:
		return b.Delete(key)
	default:
		n -= uint64(-delta)
	}
	return b.Put(key, binary.BigEndian.AppendUint64(nil, n))
}

// rebuildLikeCounts derives the per-post counters from the visitor buckets
// of a database written before the counters existed.
func rebuildLikeCounts(tx *bolt.Tx) error {
	counts, err := tx.CreateBucket(bLikeCounts)
	if err != nil {
		return err
	}
	likes := tx.Bucket(bLikes)
	return likes.ForEachBucket(func(visitor []byte) error {
		return likes.Bucket(visitor).ForEach(func(k, _ []byte) error {
			return addLikeCount(counts, k, 1)
		})
	})
}

// RecentSearches returns visitor's recent search terms, newest first.
func (s *Store) RecentSearches(visitor string) []string {
	out := []string{}
	if s == nil || visitor == "" {
		return out
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bSearches).Get([]byte(visitor))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &out)
	})
	if s.fail("recent searches", err) {
		return []string{}
	}
	return out
}

// AddRecentSearch records term at the front of visitor's list. A term
// already present, ignoring case, moves to the front.
func (s *Store) AddRecentSearch(visitor, term string) {
	term = strings.TrimSpace(term)
	if s == nil || visitor == "" || term == "" {
		return
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bSearches)
		var terms []string
		if raw := b.Get([]byte(visitor)); raw != nil {
			// A corrupt list is replaced.
			_ = json.Unmarshal(raw, &terms)
		}
		next := []string{term}
		for _, t := range terms {
			if !strings.EqualFold(t, term) && len(next) < MaxRecentSearches {
				next = append(next, t)
			}
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return err
		}
		return b.Put([]byte(visitor), raw)
	})
	s.fail("add recent search", err)
}

// ClearRecentSearches forgets visitor's searches.
func (s *Store) ClearRecentSearches(visitor string) {
	if s == nil || visitor == "" {
		return
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bSearches).Delete([]byte(visitor))
	})
	s.fail("clear recent searches", err)
}

func (s *Store) fail(op string, err error) bool {
	if err == nil {
		return false
	}
	if s.logger != nil {
		s.logger.Debugj(log.JSON{"msg": "prefs: operation failed", "op": op, "error": err.Error()})
	}
	return true
}
