package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/research-content-generator/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(ttl time.Duration) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemoryStore(ttl)
	m.now = clock.Now
	return m, clock
}

func TestMemoryDocument(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestStore(time.Hour)

	doc, err := m.Document(ctx, "ui-1")
	require.NoError(t, err)
	assert.Nil(t, doc)

	in := &models.Document{ID: "d1", Content: "text", Metadata: map[string]string{"length": "Short (500 words)"}}
	require.NoError(t, m.SetDocument(ctx, "ui-1", in))
	in.Metadata["length"] = "mutated"

	doc, err = m.Document(ctx, "ui-1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Short (500 words)", doc.Metadata["length"])

	other, err := m.Document(ctx, "ui-2")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, m.ClearDocument(ctx, "ui-1"))
	doc, err = m.Document(ctx, "ui-1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestMemoryChats(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestStore(time.Hour)
	chats := m.Chats("ui-1")

	require.NoError(t, chats.Save(ctx, &models.ChatSession{ID: "b"}))
	require.NoError(t, chats.Save(ctx, &models.ChatSession{
		ID:      "a",
		History: []models.ChatMessage{{Role: models.RoleUser, Content: "q"}},
	}))

	ids, err := chats.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	got, err := chats.Get(ctx, "a")
	require.NoError(t, err)
	got.History[0].Content = "changed"
	again, err := chats.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "q", again.History[0].Content)

	missing, err := chats.Get(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)

	otherIDs, err := m.Chats("ui-2").List(ctx)
	require.NoError(t, err)
	assert.Empty(t, otherIDs)

	require.NoError(t, chats.Delete(ctx, "a"))
	ids, err = chats.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestStore(time.Hour)

	require.NoError(t, m.SetDocument(ctx, "ui-1", &models.Document{ID: "d1"}))
	require.NoError(t, m.SetDocument(ctx, "ui-2", &models.Document{ID: "d2"}))

	clock.Advance(30 * time.Minute)
	require.NoError(t, m.Chats("ui-2").Save(ctx, &models.ChatSession{ID: "c"}))

	clock.Advance(45 * time.Minute)
	doc, err := m.Document(ctx, "ui-1")
	require.NoError(t, err)
	assert.Nil(t, doc, "ui-1 should have expired")

	doc, err = m.Document(ctx, "ui-2")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "d2", doc.ID)

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 0, m.Sweep())
}

func TestMemoryReadsExtendExpiry(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestStore(time.Hour)

	require.NoError(t, m.SetDocument(ctx, "ui-1", &models.Document{ID: "d1"}))
	require.NoError(t, m.Chats("ui-1").Save(ctx, &models.ChatSession{ID: "c"}))

	for i := 0; i < 3; i++ {
		clock.Advance(45 * time.Minute)
		doc, err := m.Document(ctx, "ui-1")
		require.NoError(t, err)
		require.NotNil(t, doc, "read %d", i)
		assert.Equal(t, "d1", doc.ID)
	}

	clock.Advance(45 * time.Minute)
	ids, err := m.Chats("ui-1").List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids)

	clock.Advance(61 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	doc, err := m.Document(ctx, "ui-1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestMemoryClear(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestStore(time.Hour)
	require.NoError(t, m.SetDocument(ctx, "ui-1", &models.Document{ID: "d1"}))
	require.NoError(t, m.Chats("ui-1").Save(ctx, &models.ChatSession{ID: "c"}))

	require.NoError(t, m.Clear(ctx, "ui-1"))

	doc, err := m.Document(ctx, "ui-1")
	require.NoError(t, err)
	assert.Nil(t, doc)
	ids, err := m.Chats("ui-1").List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMemoryStoreSatisfiesStore(t *testing.T) {
	var _ Store = NewMemoryStore(time.Minute)
	var _ Store = NewRedisStore(nil, time.Minute)
}
