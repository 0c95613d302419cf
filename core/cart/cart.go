// Package cart keeps the list of items a visitor intends to buy. A Manager owns the
// entries of one cart and writes them through a Store after every change.
package cart

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/irsalhamdi/lexvault/core/catalog"
	"github.com/irsalhamdi/lexvault/validate"
	"github.com/sirupsen/logrus"
)

// Entry is a pending purchase of one catalog item. IDs are unique within a cart.
type Entry struct {
	ID        string       `json:"id" validate:"required"`
	Kind      catalog.Kind `json:"kind" validate:"required,oneof=book case_file"`
	Title     string       `json:"title" validate:"required"`
	UnitPrice int          `json:"unitPrice" validate:"gte=0"`
}

// EntryFor builds the cart entry for a catalog item at its current price.
func EntryFor(it catalog.Item) Entry {
	return Entry{ID: it.ID, Kind: it.Kind, Title: it.Title, UnitPrice: it.Price}
}

// Snapshot is a copy of the cart state handed to readers and subscribers.
type Snapshot struct {
	ID      string  `json:"id"`
	Entries []Entry `json:"items"`
	Total   int     `json:"total"`
}

var ErrInvalidEntry = errors.New("invalid cart entry")

type persisted struct {
	ID      string  `json:"id"`
	Entries []Entry `json:"entries"`
}

// Manager is one loaded cart. When its Store implements Updater every mutation is
// applied to the stored entries, so other Managers of the same cart don't lose
// each other's changes.
type Manager struct {
	mu      sync.Mutex
	id      string
	key     string
	entries []Entry
	store   Store
	log     logrus.FieldLogger

	subs    map[int]func(Snapshot)
	nextSub int
}

// Load restores the cart persisted under key. A missing or unreadable slot yields
// an empty cart.
func Load(store Store, key string, log logrus.FieldLogger) *Manager {
	m := &Manager{
		key:   key,
		store: store,
		log:   log.WithField("cart_key", key),
		subs:  make(map[int]func(Snapshot)),
	}

	raw, err := store.Get(key)
	if err != nil {
		m.log.WithField("message", err).Warn("reading persisted cart, starting empty")
	}

	p := m.decode(raw)
	m.id = p.ID
	if m.id == "" {
		m.id = key
	}
	m.entries = p.Entries

	return m
}

// decode parses a persisted slot, dropping invalid and duplicated entries.
func (m *Manager) decode(raw string) persisted {
	var p persisted
	if raw == "" {
		return p
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		m.log.WithField("message", err).Warn("decoding persisted cart, starting empty")
		return persisted{}
	}

	seen := make(map[string]bool, len(p.Entries))
	entries := p.Entries[:0:0]
	for _, e := range p.Entries {
		if seen[e.ID] || validate.Check(e) != nil {
			continue
		}
		seen[e.ID] = true
		entries = append(entries, e)
	}
	p.Entries = entries
	return p
}

// ID identifies this cart across requests of the same session.
func (m *Manager) ID() string {
	return m.id
}

// AddItem appends e unless an entry with the same ID is present, in which case it
// reports false and leaves the cart unchanged.
func (m *Manager) AddItem(e Entry) (bool, error) {
	if err := validate.Check(e); err != nil {
		return false, errors.Join(ErrInvalidEntry, err)
	}

	var added bool
	m.mu.Lock()
	snap := m.mutate(func(entries []Entry) []Entry {
		added = false
		for _, x := range entries {
			if x.ID == e.ID {
				return entries
			}
		}
		added = true
		return append(entries, e)
	})
	m.mu.Unlock()

	if added {
		m.notify(snap)
	}
	return added, nil
}

// RemoveItem drops the entry with the given id. Absent ids are ignored.
func (m *Manager) RemoveItem(id string) bool {
	return m.RemoveItems(id) == 1
}

// RemoveItems drops every listed entry with a single write and returns how many
// were present. Entries not listed stay, including ones added by other requests
// since this cart was loaded.
func (m *Manager) RemoveItems(ids ...string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	var removed int
	m.mu.Lock()
	snap := m.mutate(func(entries []Entry) []Entry {
		kept := entries[:0:0]
		for _, e := range entries {
			if !drop[e.ID] {
				kept = append(kept, e)
			}
		}
		removed = len(entries) - len(kept)
		return kept
	})
	m.mu.Unlock()

	m.notify(snap)
	return removed
}

// Clear empties the cart.
func (m *Manager) Clear() {
	m.mu.Lock()
	snap := m.mutate(func([]Entry) []Entry { return nil })
	m.mu.Unlock()

	m.notify(snap)
}

// Total is recomputed from the entries on every call.
func (m *Manager) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return total(m.entries)
}

// Entries returns a copy in insertion order.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Contains reports whether an entry with id is in the cart.
func (m *Manager) Contains(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOf(id) >= 0
}

// Snapshot returns the current entries and total.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Subscribe registers fn to receive a snapshot after every mutation. The returned
// func unregisters it.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) indexOf(id string) int {
	for i, e := range m.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) snapshot() Snapshot {
	return Snapshot{
		ID:      m.id,
		Entries: append([]Entry{}, m.entries...),
		Total:   total(m.entries),
	}
}

func (m *Manager) encode() (string, error) {
	if len(m.entries) == 0 {
		return "", nil
	}
	b, err := json.Marshal(persisted{ID: m.id, Entries: m.entries})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// mutate applies fn and persists the result, returning the snapshot to publish. It
// is called with mu held. With an Updater, fn runs on the entries currently stored
// so concurrent writers are merged; otherwise it runs on the loaded copy. Write
// failures are logged only: the in-memory cart stays authoritative for the request.
func (m *Manager) mutate(fn func([]Entry) []Entry) Snapshot {
	applied := false
	apply := func(entries []Entry) {
		m.entries = fn(append([]Entry(nil), entries...))
		applied = true
	}

	var err error
	if u, ok := m.store.(Updater); ok {
		err = u.Update(m.key, func(raw string) (string, error) {
			apply(m.decode(raw).Entries)
			return m.encode()
		})
	} else {
		apply(m.entries)
		var raw string
		if raw, err = m.encode(); err == nil {
			if raw == "" {
				err = m.store.Remove(m.key)
			} else {
				err = m.store.Set(m.key, raw)
			}
		}
	}

	if err != nil {
		m.log.WithFields(logrus.Fields{"cart_id": m.id, "message": err}).Error("persisting cart")
	}
	if !applied {
		apply(m.entries)
	}
	return m.snapshot()
}

func (m *Manager) notify(snap Snapshot) {
	m.mu.Lock()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func total(entries []Entry) int {
	var t int
	for _, e := range entries {
		t += e.UnitPrice
	}
	return t
}
