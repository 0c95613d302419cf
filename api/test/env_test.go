package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/lexvault/api"
	"github.com/irsalhamdi/lexvault/core/auth"
	"github.com/irsalhamdi/lexvault/core/cart"
	"github.com/irsalhamdi/lexvault/core/checkout"
	"github.com/irsalhamdi/lexvault/core/entitlement"
	"github.com/irsalhamdi/lexvault/core/purchase"
	"github.com/irsalhamdi/lexvault/database"
	"github.com/irsalhamdi/lexvault/payment"
	"github.com/irsalhamdi/lexvault/rate"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/sirupsen/logrus"
)

// payments captures through the mock provider, declining the item ids in decline.
type payments struct {
	mock *payment.Mock

	mu      sync.Mutex
	decline map[string]bool
}

func (p *payments) Capture(ctx context.Context, ch payment.Charge) (payment.Receipt, error) {
	p.mu.Lock()
	declined := p.decline[ch.ItemID]
	p.mu.Unlock()

	if declined {
		return payment.Receipt{}, fmt.Errorf("%w: card refused for %s", payment.ErrDeclined, ch.ItemID)
	}
	return p.mock.Capture(ctx, ch)
}

func (p *payments) setDeclined(id string, declined bool) {
	p.mu.Lock()
	p.decline[id] = declined
	p.mu.Unlock()
}

type TestEnv struct {
	*httptest.Server
	DB       *sqlx.DB
	Payments *payments
}

// NewTestEnv starts a disposable postgres container, migrates it and serves the
// full api against it. The test is skipped when docker is not reachable.
func NewTestEnv(t *testing.T, name string) *TestEnv {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Name:       "lexvault_" + name,
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=lexvault",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("starting postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(res); err != nil {
			t.Logf("purging postgres: %v", err)
		}
	})
	res.Expire(120)

	cfg := database.Config{
		User:         "postgres",
		Password:     "postgres",
		Host:         res.GetHostPort("5432/tcp"),
		Name:         "lexvault",
		MaxIdleConns: 2,
		MaxOpenConns: 10,
		DisableTLS:   true,
	}

	var db *sqlx.DB
	pool.MaxWait = time.Minute
	err = pool.Retry(func() error {
		var err error
		if db, err = database.Open(cfg); err != nil {
			return err
		}
		return database.StatusCheck(context.Background(), db)
	})
	if err != nil {
		t.Fatalf("waiting for postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	if os.Getenv("TEST_LOG") != "" {
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.DebugLevel)
	}

	session := scs.New()
	pays := &payments{mock: payment.NewMock(), decline: make(map[string]bool)}
	purchases := purchase.Store{DB: db}
	identity := auth.Identity{DB: db, Session: session}

	srv := httptest.NewServer(api.APIMux(api.APIConfig{
		Log:      log,
		DB:       db,
		Session:  session,
		Limiter:  rate.NewLimiter(1000, time.Minute, 1000),
		Carts:    cart.NewCarts(session, cart.OpenDB(db), log),
		Resolver: entitlement.NewResolver(purchases, log),
		Checkout: checkout.New(identity, purchases, pays, log, checkout.Config{
			Timeout:     10 * time.Second,
			Concurrency: 2,
		}),
		Identity:         identity,
		LoginRedirectURL: "/",
	}))
	t.Cleanup(srv.Close)

	return &TestEnv{Server: srv, DB: db, Payments: pays}
}

// NewClient returns a client with its own cookie jar, i.e. its own browser session.
func (env *TestEnv) NewClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

// Do sends body as JSON and decodes the response into out when out is not nil.
func (env *TestEnv) Do(t *testing.T, cl *http.Client, method, path string, body, out interface{}) int {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, env.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := cl.Do(r)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer w.Body.Close()

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
	return w.StatusCode
}
