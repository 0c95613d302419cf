package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/lexvault/database"
	"github.com/irsalhamdi/lexvault/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// SessionKey is the session slot holding the key of the session's cart.
const SessionKey = "cart_key"

// Store is a durable string slot per key. Get returns "" for an absent key.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Updater is a Store that can read, change and write one key atomically. fn gets
// the stored value ("" when absent); returning "" removes the key.
type Updater interface {
	Update(key string, fn func(value string) (string, error)) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Update(key string, fn func(string) (string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := fn(s.data[key])
	if err != nil {
		return err
	}
	if v == "" {
		delete(s.data, key)
	} else {
		s.data[key] = v
	}
	return nil
}

// DBStore keeps carts in the carts table. Update locks the row for the duration
// of the change.
type DBStore struct {
	ctx context.Context
	db  *sqlx.DB
}

func NewDBStore(ctx context.Context, db *sqlx.DB) DBStore {
	return DBStore{ctx: ctx, db: db}
}

func (s DBStore) Get(key string) (string, error) {
	var v string
	err := s.db.GetContext(s.ctx, &v, `SELECT data FROM carts WHERE cart_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("selecting cart[%s]: %w", key, err)
	}
	return v, nil
}

func (s DBStore) Set(key, value string) error {
	return set(s.ctx, s.db, key, value)
}

func (s DBStore) Remove(key string) error {
	if _, err := s.db.ExecContext(s.ctx, `DELETE FROM carts WHERE cart_key = $1`, key); err != nil {
		return fmt.Errorf("deleting cart[%s]: %w", key, err)
	}
	return nil
}

func (s DBStore) Update(key string, fn func(string) (string, error)) error {
	return database.Transaction(s.db, func(tx sqlx.ExtContext) error {
		const lock = `
		INSERT INTO carts (cart_key, data, updated_at) VALUES ($1, '', $2)
		ON CONFLICT (cart_key) DO NOTHING`
		if _, err := tx.ExecContext(s.ctx, lock, key, time.Now().UTC()); err != nil {
			return fmt.Errorf("reserving cart[%s]: %w", key, err)
		}

		var old string
		if err := sqlx.GetContext(s.ctx, tx, &old, `SELECT data FROM carts WHERE cart_key = $1 FOR UPDATE`, key); err != nil {
			return fmt.Errorf("locking cart[%s]: %w", key, err)
		}

		v, err := fn(old)
		if err != nil {
			return err
		}

		if v == "" {
			if _, err := tx.ExecContext(s.ctx, `DELETE FROM carts WHERE cart_key = $1`, key); err != nil {
				return fmt.Errorf("deleting cart[%s]: %w", key, err)
			}
			return nil
		}
		return set(s.ctx, tx, key, v)
	})
}

func set(ctx context.Context, db sqlx.ExecerContext, key, value string) error {
	const q = `
	INSERT INTO carts (cart_key, data, updated_at) VALUES ($1, $2, $3)
	ON CONFLICT (cart_key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

	if _, err := db.ExecContext(ctx, q, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("saving cart[%s]: %w", key, err)
	}
	return nil
}

// Shared opens the same store for every request.
func Shared(s Store) func(context.Context) Store {
	return func(context.Context) Store { return s }
}

// OpenDB opens a DBStore bound to each request's context.
func OpenDB(db *sqlx.DB) func(context.Context) Store {
	return func(ctx context.Context) Store { return NewDBStore(ctx, db) }
}

// Carts binds each browser session to a cart kept outside the session. The
// session only carries the cart key, so requests running side by side on one
// session read and write the same cart instead of their own session copies.
type Carts struct {
	session *scs.SessionManager
	open    func(context.Context) Store
	log     logrus.FieldLogger
}

func NewCarts(session *scs.SessionManager, open func(context.Context) Store, log logrus.FieldLogger) *Carts {
	return &Carts{session: session, open: open, log: log}
}

// Load returns the cart of the session on ctx, assigning the session a cart key on
// first use.
func (cs *Carts) Load(ctx context.Context) *Manager {
	key := cs.session.GetString(ctx, SessionKey)
	if key == "" {
		key = validate.GenerateID()
		cs.session.Put(ctx, SessionKey, key)
	}
	return Load(cs.open(ctx), key, cs.log)
}
