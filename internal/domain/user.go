package domain

// User is the authenticated caller as reported by the backend.
type User struct {
	ID                 int64     `json:"id"`
	Email              string    `json:"email"`
	Plan               string    `json:"plan"`
	SubscriptionStatus string    `json:"subscription_status"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          Timestamp `json:"created_at"`
}

// Subscription describes the caller's billing plan.
type Subscription struct {
	Plan             string    `json:"plan"`
	Status           string    `json:"status"`
	CurrentPeriodEnd Timestamp `json:"current_period_end"`
}

// TokenPair is the credential set issued on login or registration.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Empty reports whether no access token is held.
func (p TokenPair) Empty() bool {
	return p.AccessToken == ""
}

// Message is the confirmation body returned by delete and mark-read calls.
type Message struct {
	Message string `json:"message"`
}

// Health is the backend liveness report.
type Health struct {
	Status      string `json:"status"`
	App         string `json:"app"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}
