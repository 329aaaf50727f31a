package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketNodes         = []byte("nodes")
	bucketCategories    = []byte("categories")
	bucketSamples       = []byte("samples")
	bucketNotifications = []byte("notifications")
)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "fleetwatch.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketNodes,
			bucketCategories,
			bucketSamples,
			bucketNotifications,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Node operations
func (s *BoltStore) CreateNode(node *types.Node) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		data, err := json.Marshal(node)
		if err != nil {
			return err
		}
		return b.Put([]byte(node.ID), data)
	})
}

func (s *BoltStore) GetNode(id string) (*types.Node, error) {
	var node types.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
		return json.Unmarshal(data, &node)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *BoltStore) GetNodeByAPIKey(apiKey string) (*types.Node, error) {
	var found *types.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		return b.ForEach(func(k, v []byte) error {
			var node types.Node
			if err := json.Unmarshal(v, &node); err != nil {
				return err
			}
			if node.APIKey == apiKey {
				found = &node
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNodeNotFound
	}
	return found, nil
}

func (s *BoltStore) ListNodes() ([]*types.Node, error) {
	var nodes []*types.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		return b.ForEach(func(k, v []byte) error {
			var node types.Node
			if err := json.Unmarshal(v, &node); err != nil {
				return err
			}
			nodes = append(nodes, &node)
			return nil
		})
	})
	return nodes, err
}

func (s *BoltStore) ListNodesByCategory(categoryID string) ([]*types.Node, error) {
	nodes, err := s.ListNodes()
	if err != nil {
		return nil, err
	}

	var filtered []*types.Node
	for _, node := range nodes {
		if node.CategoryID == categoryID {
			filtered = append(filtered, node)
		}
	}
	return filtered, nil
}

func (s *BoltStore) UpdateNode(node *types.Node) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		if b.Get([]byte(node.ID)) == nil {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, node.ID)
		}
		data, err := json.Marshal(node)
		if err != nil {
			return err
		}
		return b.Put([]byte(node.ID), data)
	})
}

// DeleteNode removes a node together with its sample series
func (s *BoltStore) DeleteNode(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
		if err := b.Delete([]byte(id)); err != nil {
			return err
		}

		samples := tx.Bucket(bucketSamples)
		if samples.Bucket([]byte(id)) != nil {
			return samples.DeleteBucket([]byte(id))
		}
		return nil
	})
}

// Category operations
func (s *BoltStore) CreateCategory(category *types.Category) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCategories)
		data, err := json.Marshal(category)
		if err != nil {
			return err
		}
		return b.Put([]byte(category.ID), data)
	})
}

func (s *BoltStore) GetCategory(id string) (*types.Category, error) {
	var category types.Category
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCategories)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		return json.Unmarshal(data, &category)
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *BoltStore) ListCategories() ([]*types.Category, error) {
	var categories []*types.Category
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCategories)
		return b.ForEach(func(k, v []byte) error {
			var category types.Category
			if err := json.Unmarshal(v, &category); err != nil {
				return err
			}
			categories = append(categories, &category)
			return nil
		})
	})
	return categories, err
}

// DeleteCategory fails with ErrCategoryInUse while nodes still reference
// the category
func (s *BoltStore) DeleteCategory(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCategories)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}

		nodes := tx.Bucket(bucketNodes)
		err := nodes.ForEach(func(k, v []byte) error {
			var node types.Node
			if err := json.Unmarshal(v, &node); err != nil {
				return err
			}
			if node.CategoryID == id {
				return fmt.Errorf("%w: %s", ErrCategoryInUse, id)
			}
			return nil
		})
		if err != nil {
			return err
		}

		return b.Delete([]byte(id))
	})
}

// Sample operations
//
// Samples live in one sub-bucket per node, keyed by the sample timestamp in
// big-endian unix nanoseconds plus the bucket sequence number. Keys sort
// chronologically, so range queries and trims are cursor scans.

func sampleKey(b *bolt.Bucket, ts time.Time) ([]byte, error) {
	seq, err := b.NextSequence()
	if err != nil {
		return nil, err
	}
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], uint64(ts.UnixNano()))
	binary.BigEndian.PutUint64(key[8:], seq)
	return key, nil
}

func (s *BoltStore) AppendSample(sample *types.Sample) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		samples := tx.Bucket(bucketSamples)
		b, err := samples.CreateBucketIfNotExists([]byte(sample.NodeID))
		if err != nil {
			return fmt.Errorf("failed to create sample bucket for %s: %w", sample.NodeID, err)
		}

		key, err := sampleKey(b, sample.Timestamp)
		if err != nil {
			return err
		}
		data, err := json.Marshal(sample)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LatestSample returns the freshest sample for a node, or nil when the node
// has never reported
func (s *BoltStore) LatestSample(nodeID string) (*types.Sample, error) {
	var sample *types.Sample
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSamples).Bucket([]byte(nodeID))
		if b == nil {
			return nil
		}
		k, v := b.Cursor().Last()
		if k == nil {
			return nil
		}
		sample = &types.Sample{}
		return json.Unmarshal(v, sample)
	})
	if err != nil {
		return nil, err
	}
	return sample, nil
}

// SamplesInRange returns samples with start <= timestamp <= end in ascending
// time order. Unknown nodes yield an empty result.
func (s *BoltStore) SamplesInRange(nodeID string, start, end time.Time) ([]*types.Sample, error) {
	var result []*types.Sample
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSamples).Bucket([]byte(nodeID))
		if b == nil {
			return nil
		}

		min := make([]byte, 8)
		binary.BigEndian.PutUint64(min, uint64(start.UnixNano()))

		c := b.Cursor()
		for k, v := c.Seek(min); k != nil; k, v = c.Next() {
			var sample types.Sample
			if err := json.Unmarshal(v, &sample); err != nil {
				return err
			}
			if sample.Timestamp.After(end) {
				break
			}
			result = append(result, &sample)
		}
		return nil
	})
	return result, err
}

// TrimSamples deletes all but the keep most recent samples for a node and
// returns the number deleted
func (s *BoltStore) TrimSamples(nodeID string, keep int) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSamples).Bucket([]byte(nodeID))
		if b == nil {
			return nil
		}

		excess := b.Stats().KeyN - keep
		if excess <= 0 {
			return nil
		}

		c := b.Cursor()
		for k, _ := c.First(); k != nil && deleted < excess; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteSamplesOlderThan removes samples older than cutoff across all nodes
func (s *BoltStore) DeleteSamplesOlderThan(cutoff time.Time) (int, error) {
	max := make([]byte, 8)
	binary.BigEndian.PutUint64(max, uint64(cutoff.UnixNano()))

	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		samples := tx.Bucket(bucketSamples)
		return samples.ForEachBucket(func(nodeID []byte) error {
			b := samples.Bucket(nodeID)
			c := b.Cursor()
			for k, _ := c.First(); k != nil && bytes.Compare(k[:8], max) < 0; k, _ = c.Next() {
				if err := c.Delete(); err != nil {
					return err
				}
				deleted++
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// Notification operations
func (s *BoltStore) CreateNotification(n *types.Notification) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotifications)
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		return b.Put([]byte(n.ID), data)
	})
}

func (s *BoltStore) GetNotification(id string) (*types.Notification, error) {
	var n types.Notification
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotifications)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
		}
		return json.Unmarshal(data, &n)
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotifications returns notifications newest first
func (s *BoltStore) ListNotifications(includeInactive bool) ([]*types.Notification, error) {
	var result []*types.Notification
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotifications)
		return b.ForEach(func(k, v []byte) error {
			var n types.Notification
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			if !includeInactive && !n.Active {
				return nil
			}
			result = append(result, &n)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

func (s *BoltStore) UpdateNotification(n *types.Notification) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotifications)
		if b.Get([]byte(n.ID)) == nil {
			return fmt.Errorf("%w: %s", ErrNotificationNotFound, n.ID)
		}
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		return b.Put([]byte(n.ID), data)
	})
}

func (s *BoltStore) DeleteNotification(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotifications)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
		}
		return b.Delete([]byte(id))
	})
}

// PurgeNotificationsOlderThan hard-deletes inactive notifications older than
// cutoff and returns the number removed. Active notifications are retained
// regardless of age.
func (s *BoltStore) PurgeNotificationsOlderThan(cutoff time.Time) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotifications)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var n types.Notification
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			if !n.Active && n.Timestamp.Before(cutoff) {
				if err := c.Delete(); err != nil {
					return err
				}
				deleted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
