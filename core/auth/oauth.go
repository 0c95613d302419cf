package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/irsalhamdi/lexvault/api/web"
	"github.com/irsalhamdi/lexvault/api/weberr"
	"github.com/irsalhamdi/lexvault/core/user"
	"github.com/irsalhamdi/lexvault/random"
	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"
)

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

type Provider struct {
	oauth2.Config
	Verifier *oidc.IDTokenVerifier
}

// MakeProviders runs OIDC discovery for every configured provider.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))
	for _, c := range cfgs {
		p, err := oidc.NewProvider(ctx, c.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider[%s]: %w", c.Name, err)
		}

		provs[c.Name] = Provider{
			Config: oauth2.Config{
				ClientID:     c.Client,
				ClientSecret: c.Secret,
				RedirectURL:  c.RedirectURL,
				Endpoint:     p.Endpoint(),
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			Verifier: p.Verifier(&oidc.Config{ClientID: c.Client}),
		}
	}
	return provs, nil
}

func HandleOauthLogin(session *scs.SessionManager, provs map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		prov, ok := provs[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider[%s]", name))
		}

		state, err := random.StringSecure(32)
		if err != nil {
			return fmt.Errorf("generating oauth state: %w", err)
		}
		nonce, err := random.StringSecure(32)
		if err != nil {
			return fmt.Errorf("generating oauth nonce: %w", err)
		}

		session.Put(ctx, stateKey, state)
		session.Put(ctx, nonceKey, nonce)

		http.Redirect(w, r, prov.AuthCodeURL(state, oidc.Nonce(nonce)), http.StatusFound)
		return nil
	}
}

func HandleOauthCallback(db *sqlx.DB, session *scs.SessionManager, provs map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		prov, ok := provs[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider[%s]", name))
		}

		state := session.PopString(ctx, stateKey)
		nonce := session.PopString(ctx, nonceKey)
		if state == "" || r.URL.Query().Get("state") != state {
			return weberr.NotAuthorized(errors.New("oauth state mismatch"))
		}

		tok, err := prov.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("exchanging oauth code: %w", err))
		}

		raw, ok := tok.Extra("id_token").(string)
		if !ok {
			return weberr.NotAuthorized(errors.New("oauth token carries no id_token"))
		}

		idt, err := prov.Verifier.Verify(ctx, raw)
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("verifying id token: %w", err))
		}
		if idt.Nonce != nonce {
			return weberr.NotAuthorized(errors.New("oauth nonce mismatch"))
		}

		var info struct {
			Email    string `json:"email"`
			Verified bool   `json:"email_verified"`
			Name     string `json:"name"`
		}
		if err := idt.Claims(&info); err != nil {
			return fmt.Errorf("decoding id token claims: %w", err)
		}
		if !info.Verified {
			return weberr.NotAuthorized(fmt.Errorf("email %s not verified by %s", info.Email, name))
		}

		usr, err := user.FetchOrCreateByEmail(ctx, db, info.Email, info.Name, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("resolving oauth user: %w", err)
		}

		if err := login(ctx, session, usr); err != nil {
			return err
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
		return nil
	}
}
