package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	// HistoryKey is the key-value key under which the history is persisted.
	HistoryKey = "myyntiapuri-pro-v2"
	// MaxHistoryEntries is the history capacity; older entries are evicted.
	MaxHistoryEntries = 20
)

// HistoryEntry is the persisted projection of a finished generation.
type HistoryEntry struct {
	ID    int64  `json:"id"`    // creation time in unix milliseconds
	Title string `json:"title"` // listing title
	Date  string `json:"date"`  // creation date formatted for the user's locale
}

// HistoryBackend persists the whole history sequence.
type HistoryBackend interface {
	Load() ([]HistoryEntry, error)
	Save(entries []HistoryEntry) error
}

// History is a capacity-bounded, most-recent-first log of generated
// listings. Reads and mutations are synchronous; writes to the backend run
// in the background and Flush waits for them.
type History struct {
	backend HistoryBackend

	mu      sync.Mutex
	entries []HistoryEntry
	seq     uint64

	saveMu   sync.Mutex
	savedSeq uint64
	pending  sync.WaitGroup
}

// NewHistory creates an empty history backed by backend. Call Load to
// rehydrate persisted entries.
func NewHistory(backend HistoryBackend) *History {
	return &History{backend: backend}
}

// Load replaces the in-memory entries with the persisted ones. A backend
// failure leaves the history empty rather than failing startup.
func (h *History) Load() {
	entries, err := h.backend.Load()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load history, starting empty")
		entries = nil
	}
	if len(entries) > MaxHistoryEntries {
		entries = entries[:MaxHistoryEntries]
	}

	h.mu.Lock()
	h.entries = entries
	h.mu.Unlock()

	log.Debug().Int("count", len(entries)).Msg("history loaded")
}

// Record prepends entry, evicting the oldest entries beyond capacity, and
// persists the result.
func (h *History) Record(entry HistoryEntry) {
	h.mu.Lock()
	entries := make([]HistoryEntry, 0, min(len(h.entries)+1, MaxHistoryEntries))
	entries = append(entries, entry)
	for _, e := range h.entries {
		if len(entries) == MaxHistoryEntries {
			break
		}
		entries = append(entries, e)
	}
	h.entries = entries
	h.seq++
	seq := h.seq
	snapshot := h.snapshotLocked()
	h.mu.Unlock()

	h.persist(snapshot, seq)
}

// Remove deletes the entry with id and persists the result. It reports
// whether an entry was removed; an unknown id changes nothing.
func (h *History) Remove(id int64) bool {
	h.mu.Lock()
	idx := -1
	for i, e := range h.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		h.mu.Unlock()
		return false
	}

	entries := make([]HistoryEntry, 0, len(h.entries)-1)
	entries = append(entries, h.entries[:idx]...)
	entries = append(entries, h.entries[idx+1:]...)
	h.entries = entries
	h.seq++
	seq := h.seq
	snapshot := h.snapshotLocked()
	h.mu.Unlock()

	h.persist(snapshot, seq)
	return true
}

// List returns the entries, most recent first.
func (h *History) List() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// Flush blocks until all background writes have finished.
func (h *History) Flush() {
	h.pending.Wait()
}

func (h *History) snapshotLocked() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// persist writes snapshot in the background. Writes are serialized and a
// snapshot older than the last written one is dropped, so the backend
// always ends up with the newest state.
func (h *History) persist(snapshot []HistoryEntry, seq uint64) {
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()

		h.saveMu.Lock()
		defer h.saveMu.Unlock()

		if seq <= h.savedSeq {
			return
		}
		h.savedSeq = seq

		if err := h.backend.Save(snapshot); err != nil {
			log.Warn().Err(err).Int("count", len(snapshot)).Msg("failed to persist history")
		}
	}()
}

// KVHistoryBackend stores the history as a JSON array under HistoryKey.
type KVHistoryBackend struct {
	kv  KeyValueStore
	key string
}

// NewKVHistoryBackend creates a history backend on top of kv.
func NewKVHistoryBackend(kv KeyValueStore) *KVHistoryBackend {
	return &KVHistoryBackend{kv: kv, key: HistoryKey}
}

// Load implements HistoryBackend. A missing key is an empty history.
func (b *KVHistoryBackend) Load() ([]HistoryEntry, error) {
	raw, ok, err := b.kv.Get(b.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var entries []HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history json: %w", err)
	}
	return entries, nil
}

// Save implements HistoryBackend.
func (b *KVHistoryBackend) Save(entries []HistoryEntry) error {
	if entries == nil {
		entries = []HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return b.kv.Set(b.key, string(data))
}

// MemoryHistoryBackend keeps the persisted history in memory.
type MemoryHistoryBackend struct {
	mu      sync.Mutex
	entries []HistoryEntry
	saves   int

	// LoadErr, when set, is returned by Load.
	LoadErr error
}

// NewMemoryHistoryBackend creates a backend preloaded with entries.
func NewMemoryHistoryBackend(entries ...HistoryEntry) *MemoryHistoryBackend {
	return &MemoryHistoryBackend{entries: entries}
}

// Load implements HistoryBackend.
func (m *MemoryHistoryBackend) Load() ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	out := make([]HistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// Save implements HistoryBackend.
func (m *MemoryHistoryBackend) Save(entries []HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make([]HistoryEntry, len(entries))
	copy(m.entries, entries)
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryHistoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
