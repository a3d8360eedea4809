package auth

import (
	"context"
	"errors"
	"fmt"
)

var ErrRateLimited = errors.New("too many login attempts")

// LoginError describes a rejected login. The message is the same whether
// the username or the password was wrong; only the rate limit hints differ.
type LoginError struct {
	Limited          bool
	Remaining        int
	RemainingMinutes int
}

func (e *LoginError) Error() string {
	if e.Limited {
		return fmt.Sprintf("%s, retry in %d minute(s)", ErrInvalidCredentials, e.RemainingMinutes)
	}
	return ErrInvalidCredentials.Error()
}

func (e *LoginError) Unwrap() []error {
	if e.Limited {
		return []error{ErrInvalidCredentials, ErrRateLimited}
	}
	return []error{ErrInvalidCredentials}
}

// Authenticator composes the rate limiter, credential store and token
// service into the admin login flow.
type Authenticator struct {
	Limiter      *RateLimiter
	Credentials  *Credentials
	Tokens       *TokenService
	Rotator      *Rotator
	AttemptLimit int
}

// Login returns a fresh session token, or a *LoginError when the attempt
// is rejected. Other errors come from the credential store.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	res := a.Limiter.Check(a.AttemptLimit, username)
	if !res.Success {
		return "", &LoginError{Limited: true, RemainingMinutes: res.RemainingMinutes}
	}
	if err := a.Credentials.Verify(ctx, username, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return "", &LoginError{Remaining: res.Remaining}
		}
		return "", err
	}
	token, err := a.Tokens.Issue(username)
	if err != nil {
		return "", err
	}
	if a.Rotator != nil {
		a.Rotator.Track(token)
	}
	return token, nil
}
