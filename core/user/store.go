package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/irsalhamdi/lexvault/core/claims"
	"github.com/irsalhamdi/lexvault/database"
	"github.com/irsalhamdi/lexvault/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrBadCredentials  = errors.New("invalid email or password")
	ErrPasswordMissing = errors.New("account has no password, use the oauth login")
)

func Create(ctx context.Context, db sqlx.ExtContext, usr User) error {
	const q = `
	INSERT INTO users
		(user_id, email, name, role, password_hash, created_at, updated_at)
	VALUES
		(:user_id, :email, :name, :role, :password_hash, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, usr); err != nil {
		if errors.Is(database.Wrap(err), database.ErrDBDuplicatedEntry) {
			return ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.QueryerContext, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user[%s]: %w", id, err)
	}
	return usr, nil
}

func FetchByEmail(ctx context.Context, db sqlx.QueryerContext, email string) (User, error) {
	const q = `SELECT * FROM users WHERE email = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, strings.ToLower(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user by email: %w", err)
	}
	return usr, nil
}

// Register creates a password account from a validated signup form.
func Register(ctx context.Context, db sqlx.ExtContext, su UserSignup, now time.Time) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	usr := User{
		ID:           validate.GenerateID(),
		Email:        strings.ToLower(su.Email),
		Name:         su.Name,
		Role:         claims.RoleUser,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := Create(ctx, db, usr); err != nil {
		return User{}, err
	}
	return usr, nil
}

// Authenticate checks a password login and returns the matching account.
func Authenticate(ctx context.Context, db sqlx.QueryerContext, email, password string) (User, error) {
	usr, err := FetchByEmail(ctx, db, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrBadCredentials
		}
		return User{}, err
	}

	if len(usr.PasswordHash) == 0 {
		return User{}, ErrPasswordMissing
	}
	if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	return usr, nil
}

// FetchOrCreateByEmail resolves an oauth identity, creating a passwordless account
// the first time the email is seen.
func FetchOrCreateByEmail(ctx context.Context, db sqlx.ExtContext, email, name string, now time.Time) (User, error) {
	usr, err := FetchByEmail(ctx, db, email)
	if err == nil {
		return usr, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	usr = User{
		ID:        validate.GenerateID(),
		Email:     strings.ToLower(email),
		Name:      name,
		Role:      claims.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := Create(ctx, db, usr); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return FetchByEmail(ctx, db, email)
		}
		return User{}, err
	}
	return usr, nil
}
