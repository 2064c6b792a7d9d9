package api

import (
	"context"
	"net/http"

	"YourStockNews/internal/domain"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair and persists both tokens.
func (c *Client) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

// Register creates an account and persists the returned token pair.
func (c *Client) Register(ctx context.Context, email, password string) (domain.TokenPair, error) {
	return c.authenticate(ctx, "/auth/register", email, password)
}

// Logout forgets the stored credentials. No request is made.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Clear(ctx)
}

func (c *Client) authenticate(ctx context.Context, endpoint, email, password string) (domain.TokenPair, error) {
	var pair domain.TokenPair
	if err := c.send(ctx, http.MethodPost, endpoint, credentials{Email: email, Password: password}, &pair); err != nil {
		return domain.TokenPair{}, err
	}
	if err := c.session.Store(ctx, pair); err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}
