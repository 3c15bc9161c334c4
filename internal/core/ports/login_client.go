package ports

import (
	"context"
	"encoding/json"
)

// LoginResponse is the raw outcome of POST /api/users/login. Body is kept
// undecoded so the field mapping happens in exactly one place.
type LoginResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// OK reports a 2xx status.
func (r *LoginResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// LoginClient is the login collaborator. An error means the request did not
// complete; a non-2xx response is not an error.
type LoginClient interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
}
