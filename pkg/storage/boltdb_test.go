package storage

import (
	"testing"
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testNode(id string) *types.Node {
	return &types.Node{
		ID:         id,
		Name:       "node-" + id,
		Location:   "eu-west",
		APIKey:     "sk_" + id,
		CategoryID: "cat-1",
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func onlineSample(nodeID string, ts time.Time) *types.Sample {
	return &types.Sample{
		NodeID:    nodeID,
		Status:    types.StatusOnline,
		Usage:     types.Usage{CPU: 10, RAM: 20, Disk: 30},
		Timestamp: ts,
	}
}

func TestNodeCRUD(t *testing.T) {
	store := newTestStore(t)

	node := testNode("a")
	require.NoError(t, store.CreateNode(node))

	got, err := store.GetNode("a")
	require.NoError(t, err)
	assert.Equal(t, node.Name, got.Name)

	byKey, err := store.GetNodeByAPIKey("sk_a")
	require.NoError(t, err)
	assert.Equal(t, "a", byKey.ID)

	_, err = store.GetNode("missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = store.GetNodeByAPIKey("sk_wrong")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	got.Name = "renamed"
	require.NoError(t, store.UpdateNode(got))
	got, err = store.GetNode("a")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	require.NoError(t, store.DeleteNode("a"))
	_, err = store.GetNode("a")
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.ErrorIs(t, store.DeleteNode("a"), ErrNodeNotFound)
}

func TestListNodesByCategory(t *testing.T) {
	store := newTestStore(t)

	a := testNode("a")
	b := testNode("b")
	b.CategoryID = "cat-2"
	require.NoError(t, store.CreateNode(a))
	require.NoError(t, store.CreateNode(b))

	nodes, err := store.ListNodesByCategory("cat-1")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "a", nodes[0].ID)
}

func TestCategoryDeleteGuard(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.CreateCategory(&types.Category{ID: "cat-1", Name: "web"}))
	require.NoError(t, store.CreateNode(testNode("a")))

	err := store.DeleteCategory("cat-1")
	assert.ErrorIs(t, err, ErrCategoryInUse)

	// After the node is gone the category can be deleted
	require.NoError(t, store.DeleteNode("a"))
	require.NoError(t, store.DeleteCategory("cat-1"))

	assert.ErrorIs(t, store.DeleteCategory("cat-1"), ErrCategoryNotFound)
}

func TestAppendAndLatestSample(t *testing.T) {
	store := newTestStore(t)

	// Unknown node reads as empty, not as an error
	latest, err := store.LatestSample("ghost")
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Now()
	require.NoError(t, store.AppendSample(onlineSample("a", base)))
	require.NoError(t, store.AppendSample(onlineSample("a", base.Add(time.Minute))))

	latest, err = store.LatestSample("a")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.WithinDuration(t, base.Add(time.Minute), latest.Timestamp, time.Second)
}

func TestSamplesInRangeOrdering(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendSample(onlineSample("a", base.Add(time.Duration(i)*time.Minute))))
	}

	samples, err := store.SamplesInRange("a", base.Add(time.Minute), base.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, samples, 3)
	for i := 1; i < len(samples); i++ {
		assert.True(t, samples[i].Timestamp.After(samples[i-1].Timestamp), "samples must be ascending")
	}

	// Range for an unknown node is empty
	samples, err = store.SamplesInRange("ghost", base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestTrimSamplesKeepsMostRecent(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		require.NoError(t, store.AppendSample(onlineSample("a", base.Add(time.Duration(i)*time.Minute))))
	}

	deleted, err := store.TrimSamples("a", 4)
	require.NoError(t, err)
	assert.Equal(t, 6, deleted)

	samples, err := store.SamplesInRange("a", base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, samples, 4)
	// The four most recent survive
	assert.Equal(t, base.Add(6*time.Minute), samples[0].Timestamp.UTC())

	// Trimming below the bound is a no-op
	deleted, err = store.TrimSamples("a", 100)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestDeleteSamplesOlderThan(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.AppendSample(onlineSample("a", base)))
	require.NoError(t, store.AppendSample(onlineSample("a", base.Add(time.Hour))))
	require.NoError(t, store.AppendSample(onlineSample("b", base)))

	deleted, err := store.DeleteSamplesOlderThan(base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	latest, err := store.LatestSample("a")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, base.Add(time.Hour), latest.Timestamp.UTC())

	latest, err = store.LatestSample("b")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestDeleteNodeCascadesSamples(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.CreateNode(testNode("a")))
	require.NoError(t, store.AppendSample(onlineSample("a", time.Now())))
	require.NoError(t, store.DeleteNode("a"))

	latest, err := store.LatestSample("a")
	require.NoError(t, err)
	assert.Nil(t, latest, "samples of a deleted node must not be readable")
}

func TestNotificationLifecycle(t *testing.T) {
	store := newTestStore(t)

	old := &types.Notification{ID: "n1", Type: types.NotificationError, Message: "old", Timestamp: time.Now().Add(-100 * 24 * time.Hour), Active: false}
	oldActive := &types.Notification{ID: "n2", Type: types.NotificationInfo, Message: "old but active", Timestamp: time.Now().Add(-100 * 24 * time.Hour), Active: true}
	fresh := &types.Notification{ID: "n3", Type: types.NotificationWarning, Message: "fresh", Timestamp: time.Now(), Active: true}

	for _, n := range []*types.Notification{old, oldActive, fresh} {
		require.NoError(t, store.CreateNotification(n))
	}

	active, err := store.ListNotifications(false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "n3", active[0].ID, "newest first")

	all, err := store.ListNotifications(true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Purge removes only inactive records past the cutoff
	deleted, err := store.PurgeNotificationsOlderThan(time.Now().Add(-90 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = store.GetNotification("n1")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	_, err = store.GetNotification("n2")
	assert.NoError(t, err)
}
