package repo

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memUser struct {
	id       int
	email    string
	password string
}

type memConfig struct {
	userID int
	cfg    SavedConfig
}

// MemoryRepository keeps everything in process memory. It backs local runs
// without a database and the handler tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int
	users   map[string]memUser
	configs map[uuid.UUID]memConfig
	history map[int][]HistoryEntry
	now     func() time.Time
}

func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		users:   make(map[string]memUser),
		configs: make(map[uuid.UUID]memConfig),
		history: make(map[int][]HistoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryRepository) CreateUser(_ context.Context, login, email, password string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[login]; ok {
		return 0, fmt.Errorf("login %q already exists", login)
	}
	m.nextID++
	m.users[login] = memUser{id: m.nextID, email: email, password: password}
	return m.nextID, nil
}

func (m *MemoryRepository) GetBylogin(_ context.Context, login string) (int, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[login]
	if !ok {
		return 0, "", nil
	}
	return u.id, u.password, nil
}

func (m *MemoryRepository) SaveConfig(_ context.Context, userID int, name string, payload []byte) (SavedConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc := SavedConfig{
		ID:        uuid.New(),
		Name:      name,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: m.now().UTC(),
	}
	m.configs[sc.ID] = memConfig{userID: userID, cfg: sc}
	return sc, nil
}

func (m *MemoryRepository) ListConfigs(_ context.Context, userID int) ([]SavedConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []SavedConfig
	for _, c := range m.configs {
		if c.userID == userID {
			out = append(out, c.cfg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (m *MemoryRepository) GetConfig(_ context.Context, userID int, id uuid.UUID) (SavedConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.configs[id]
	if !ok || c.userID != userID {
		return SavedConfig{}, ErrNotFound
	}
	return c.cfg, nil
}

func (m *MemoryRepository) DeleteConfig(_ context.Context, userID int, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.configs[id]
	if !ok || c.userID != userID {
		return ErrNotFound
	}
	delete(m.configs, id)
	return nil
}

func (m *MemoryRepository) AppendHistory(_ context.Context, userID int, entries ...HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[userID] = append(m.history[userID], entries...)
	return nil
}

func (m *MemoryRepository) ListHistory(_ context.Context, userID int, limit int) ([]HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.history[userID]
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]HistoryEntry(nil), h...), nil
}
