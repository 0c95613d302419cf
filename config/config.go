package config

import (
	"time"

	"github.com/irsalhamdi/lexvault/database"
)

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:30s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type Session struct {
	Lifetime     time.Duration `conf:"default:720h"`
	CookieSecure bool          `conf:"default:false"`
}

type Rate struct {
	Burst    int           `conf:"default:20"`
	Interval time.Duration `conf:"default:100ms"`
	Expiry   time.Duration `conf:"default:10m"`
}

type Checkout struct {
	Timeout     time.Duration `conf:"default:45s"`
	Concurrency int           `conf:"default:4"`
}

// Payment selects the capture provider used at checkout: mock, stripe or paypal.
type Payment struct {
	Provider string `conf:"default:mock"`
	Currency string `conf:"default:INR"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	PaymentMethod string `conf:"default:pm_card_visa"`
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api-m.sandbox.paypal.com"`
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:10s"`
	LoginRedirectURL string        `conf:"default:/"`
	Google           OauthProvider
}

type Config struct {
	Web      Web
	DB       database.Config
	Session  Session
	Cors     Cors
	Rate     Rate
	Checkout Checkout
	Payment  Payment
	Stripe   Stripe
	Paypal   Paypal
	Oauth    Oauth
}
