package domain

import "encoding/json"

// Account is the identity the account backend returns once a registration is finalized.
type Account struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     string          `json:"role"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// NewAccount is the payload sent to the backend to create an account.
type NewAccount struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FinalizedAccount is a created account plus the session token the backend issued for it.
type FinalizedAccount struct {
	Account Account
	Token   string
}

// RelayedResponse is a backend response passed through to the client unchanged.
type RelayedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}
