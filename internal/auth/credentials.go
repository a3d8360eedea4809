package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"blog/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// UserStore is the persistence the credential store needs.
type UserStore interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	UpsertUser(ctx context.Context, username, passwordHash string) error
}

// Credentials verifies the admin username and password against a bcrypt
// hash kept in the users table.
type Credentials struct {
	users UserStore
	cost  int

	dummyOnce sync.Once
	dummy     []byte
}

func NewCredentials(users UserStore, cost int) *Credentials {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Credentials{users: users, cost: cost}
}

// Seed stores password for username, replacing any existing hash.
func (c *Credentials) Seed(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return c.users.UpsertUser(ctx, username, string(hash))
}

// Verify returns ErrInvalidCredentials for an unknown user and for a wrong
// password alike. Unknown users are still compared against a throwaway
// hash so both cases cost the same.
func (c *Credentials) Verify(ctx context.Context, username, password string) error {
	user, err := c.users.GetUser(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		bcrypt.CompareHashAndPassword(c.dummyHash(), []byte(password))
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (c *Credentials) dummyHash() []byte {
	c.dummyOnce.Do(func() {
		secret := make([]byte, 32)
		rand.Read(secret)
		c.dummy, _ = bcrypt.GenerateFromPassword(secret, c.cost)
	})
	return c.dummy
}
