package api

import (
	"context"

	"YourStockNews/internal/domain"
)

// GetCurrentUser returns the caller's profile.
func (c *Client) GetCurrentUser(ctx context.Context) (domain.User, error) {
	var user domain.User
	if err := c.get(ctx, "/users/me", &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// GetSubscription returns plan, status and current billing-period end.
func (c *Client) GetSubscription(ctx context.Context) (domain.Subscription, error) {
	var sub domain.Subscription
	if err := c.get(ctx, "/subscriptions/me", &sub); err != nil {
		return domain.Subscription{}, err
	}
	return sub, nil
}

// Health reports backend liveness.
func (c *Client) Health(ctx context.Context) (domain.Health, error) {
	var health domain.Health
	if err := c.get(ctx, "/health", &health); err != nil {
		return domain.Health{}, err
	}
	return health, nil
}
