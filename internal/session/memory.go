package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ayush/research-content-generator/internal/chatbot"
	"github.com/ayush/research-content-generator/internal/models"
)

type memoryEntry struct {
	doc     *models.Document
	chats   map[string]*models.ChatSession
	expires time.Time
}

// MemoryStore keeps UI session state in process. Every access, read or
// write, extends an entry's life by the TTL, matching the session cookie
// that is re-issued on each request. Idle entries are dropped on next access.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: make(map[string]*memoryEntry), now: time.Now}
}

// entry returns the live entry for sid and extends its expiry. Callers hold mu.
func (m *MemoryStore) entry(sid string, create bool) *memoryEntry {
	now := m.now()
	e, ok := m.entries[sid]
	if ok && m.ttl > 0 && now.After(e.expires) {
		delete(m.entries, sid)
		e, ok = nil, false
	}
	if !ok {
		if !create {
			return nil
		}
		e = &memoryEntry{chats: make(map[string]*models.ChatSession)}
		m.entries[sid] = e
	}
	e.expires = now.Add(m.ttl)
	return e
}

func (m *MemoryStore) Document(_ context.Context, sid string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(sid, false)
	if e == nil {
		return nil, nil
	}
	return copyDocument(e.doc), nil
}

func (m *MemoryStore) SetDocument(_ context.Context, sid string, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(sid, true).doc = copyDocument(doc)
	return nil
}

func (m *MemoryStore) ClearDocument(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.entry(sid, false); e != nil {
		e.doc = nil
	}
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sid)
	return nil
}

func (m *MemoryStore) Chats(sid string) chatbot.Store {
	return &memoryChats{m: m, sid: sid}
}

// Sweep drops every expired entry and reports how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()
	n := 0
	for sid, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, sid)
			n++
		}
	}
	return n
}

type memoryChats struct {
	m   *MemoryStore
	sid string
}

func (c *memoryChats) Get(_ context.Context, id string) (*models.ChatSession, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	e := c.m.entry(c.sid, false)
	if e == nil {
		return nil, nil
	}
	s, ok := e.chats[id]
	if !ok {
		return nil, nil
	}
	return copyChat(s), nil
}

func (c *memoryChats) Save(_ context.Context, s *models.ChatSession) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.m.entry(c.sid, true).chats[s.ID] = copyChat(s)
	return nil
}

func (c *memoryChats) Delete(_ context.Context, id string) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if e := c.m.entry(c.sid, false); e != nil {
		delete(e.chats, id)
	}
	return nil
}

func (c *memoryChats) List(context.Context) ([]string, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	e := c.m.entry(c.sid, false)
	if e == nil {
		return nil, nil
	}
	ids := make([]string, 0, len(e.chats))
	for id := range e.chats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
