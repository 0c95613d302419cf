package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/irsalhamdi/lexvault/api/web"
	"github.com/irsalhamdi/lexvault/api/weberr"
	"github.com/irsalhamdi/lexvault/rate"
)

// RateLimit rejects clients, keyed by remote IP, that exceed the limiter's budget.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !lim.Allow(host) {
				err := errors.New("rate limit exceeded")
				return weberr.NewError(err, "rate limit exceeded, retry soon", http.StatusTooManyRequests,
					weberr.WithField("client", host))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
