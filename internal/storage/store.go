package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/debuglog"
	"github.com/Faffo96/news-exercise-front/internal/store"
)

var ErrNotFound = errors.New("not found")

var (
	newsBucket          = []byte("news")
	subcategoriesBucket = []byte("subcategories")
	metaBucket          = []byte("meta")
	authBucket          = []byte("auth")

	cacheMetaKey = []byte("cache")
)

const DefaultTimeout = 1 * time.Second

// Store is the local bbolt cache of the last-known-good catalog and the
// bearer token.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenStore opens or creates the cache at dbPath. A non-positive timeout
// waits DefaultTimeout for the file lock.
func OpenStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{newsBucket, subcategoriesBucket, metaBucket, authBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the cached catalog with snap.
func (s *Store) SaveSnapshot(snap store.Snapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := resetBucket(tx, newsBucket); err != nil {
			return err
		}
		if err := resetBucket(tx, subcategoriesBucket); err != nil {
			return err
		}

		nb := tx.Bucket(newsBucket)
		meta := CacheMeta{
			SavedAt:        s.now().UTC(),
			NewsOrder:      make([]catalog.ID, 0, len(snap.News)),
			MainCategories: snap.MainCategories,
			Subcategories:  len(snap.Subcategories),
		}
		for _, n := range snap.News {
			if n.ID == "" {
				continue
			}
			if err := putJSON(nb, []byte(n.ID), n); err != nil {
				return err
			}
			meta.NewsOrder = append(meta.NewsOrder, n.ID)
		}

		sb := tx.Bucket(subcategoriesBucket)
		for i, sub := range snap.Subcategories {
			if err := putJSON(sb, positionKey(i), sub); err != nil {
				return err
			}
		}

		return putJSON(tx.Bucket(metaBucket), cacheMetaKey, meta)
	})
}

// LoadSnapshot returns the cached catalog and when it was saved. It returns
// ErrNotFound when nothing was ever saved.
func (s *Store) LoadSnapshot() (store.Snapshot, time.Time, error) {
	var (
		snap store.Snapshot
		meta CacheMeta
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get(cacheMetaKey)
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("decoding cache metadata: %w", err)
		}

		nb := tx.Bucket(newsBucket)
		snap.News = make([]catalog.News, 0, len(meta.NewsOrder))
		for _, id := range meta.NewsOrder {
			raw := nb.Get([]byte(id))
			if raw == nil {
				continue
			}
			var n catalog.News
			if err := json.Unmarshal(raw, &n); err != nil {
				debuglog.Warnf("skipping cached news %s: %v", id, err)
				continue
			}
			snap.News = append(snap.News, n)
		}

		snap.Subcategories = make([]catalog.Subcategory, 0, meta.Subcategories)
		err := tx.Bucket(subcategoriesBucket).ForEach(func(_, v []byte) error {
			var sub catalog.Subcategory
			if err := json.Unmarshal(v, &sub); err != nil {
				return nil
			}
			snap.Subcategories = append(snap.Subcategories, sub)
			return nil
		})
		if err != nil {
			return err
		}

		snap.MainCategories = meta.MainCategories
		return nil
	})
	if err != nil {
		return store.Snapshot{}, time.Time{}, err
	}
	return snap, meta.SavedAt, nil
}

// Mirror keeps the cache in step with c: every collection change rewrites
// the snapshot. Status-only changes are ignored. The returned function stops
// mirroring.
func (s *Store) Mirror(c *store.Catalog) func() {
	return c.Subscribe(func(ch store.Change) {
		if ch.Op == store.OpStatus || ch.Op == store.OpRestore {
			return
		}
		if err := s.SaveSnapshot(c.Snapshot()); err != nil {
			debuglog.WithFields(map[string]any{"resource": string(ch.Resource)}).
				WithErr(err).Errorf("saving snapshot")
		}
	})
}

func resetBucket(tx *bolt.Tx, name []byte) error {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, berrors.ErrBucketNotFound) {
		return err
	}
	_, err := tx.CreateBucket(name)
	return err
}

func putJSON(b *bolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func positionKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
