package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/lexvault/api"
	"github.com/irsalhamdi/lexvault/config"
	"github.com/irsalhamdi/lexvault/core/auth"
	"github.com/irsalhamdi/lexvault/core/cart"
	"github.com/irsalhamdi/lexvault/core/checkout"
	"github.com/irsalhamdi/lexvault/core/entitlement"
	"github.com/irsalhamdi/lexvault/core/purchase"
	"github.com/irsalhamdi/lexvault/database"
	"github.com/irsalhamdi/lexvault/payment"
	"github.com/irsalhamdi/lexvault/rate"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "LEXVAULT"
	var cfg config.Config
	if _, err := conf.Parse(prefix, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Session.Lifetime
	sessionManager.Cookie.Secure = cfg.Session.CookieSecure
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	limiter := rate.NewLimiter(cfg.Rate.Burst, cfg.Rate.Expiry, rate.Every(cfg.Rate.Interval))
	go limiter.Run(ctx, cfg.Rate.Expiry)

	payments, err := makePayments(ctx, cfg)
	if err != nil {
		return err
	}
	logger.WithField("provider", cfg.Payment.Provider).Info("payment provider ready")

	var oauthProvs map[string]auth.Provider
	if google := cfg.Oauth.Google; google.Client != "" {
		dctx, cancel := context.WithTimeout(ctx, cfg.Oauth.DiscoveryTimeout)
		defer cancel()

		oauthProvs, err = auth.MakeProviders(dctx, []auth.ProviderConfig{
			{Name: "google", Client: google.Client, Secret: google.Secret, URL: google.URL, RedirectURL: google.RedirectURL},
		})
		if err != nil {
			return fmt.Errorf("failed to discover oauth providers: %w", err)
		}
	}

	purchases := purchase.Store{DB: db}
	identity := auth.Identity{DB: db, Session: sessionManager}

	orch := checkout.New(identity, purchases, payments, logger, checkout.Config{
		Timeout:     cfg.Checkout.Timeout,
		Concurrency: cfg.Checkout.Concurrency,
		Currency:    cfg.Payment.Currency,
	})

	mux := api.APIMux(api.APIConfig{
		CorsOrigin:       cfg.Cors.Origin,
		Log:              logger,
		DB:               db,
		Session:          sessionManager,
		Carts:            cart.NewCarts(sessionManager, cart.OpenDB(db), logger),
		Limiter:          limiter,
		Resolver:         entitlement.NewResolver(purchases, logger),
		Checkout:         orch,
		Identity:         identity,
		Providers:        oauthProvs,
		LoginRedirectURL: cfg.Oauth.LoginRedirectURL,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}

func makePayments(ctx context.Context, cfg config.Config) (checkout.Payments, error) {
	switch cfg.Payment.Provider {
	case "mock":
		return payment.NewMock(), nil

	case "stripe":
		strp := &stripecl.API{}
		strp.Init(cfg.Stripe.APISecret, nil)
		return payment.NewStripe(strp, cfg.Stripe.PaymentMethod), nil

	case "paypal":
		pp, err := paypal.NewClient(cfg.Paypal.ClientID, cfg.Paypal.Secret, cfg.Paypal.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to build the paypal client: %w", err)
		}
		if _, err = pp.GetAccessToken(ctx); err != nil {
			return nil, fmt.Errorf("failed to get the first paypal access token: %w", err)
		}
		return payment.NewPaypal(pp), nil
	}

	return nil, fmt.Errorf("unknown payment provider %q", cfg.Payment.Provider)
}
