package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"casalink/internal/model"
)

// Message codes surfaced through LoginResult when the backend could
// not be reached at all.
const (
	MsgServerUnreachable = "SERVER_UNREACHABLE"
	MsgConnectionTimeout = "CONNECTION_TIMEOUT"
	MsgHostNotFound      = "HOST_NOT_FOUND"
	MsgNetworkError      = "NETWORK_ERROR"
)

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates against POST /auth/login. Transport failures are
// folded into the result as message codes rather than returned as
// errors; the only error this can return is a validation failure.
// A non-2xx response still attempts to parse the structured error body.
func (c *Client) Login(ctx context.Context, username, password string) (model.LoginResult, error) {
	const op = "login"
	creds := credentials{Username: username, Password: password}
	if err := check(op, creds); err != nil {
		return model.LoginResult{}, err
	}

	status, body, err := c.do(ctx, op, http.MethodPost, "/auth/login", nil, creds)
	if err != nil {
		return model.LoginResult{Success: false, Message: messageCode(err)}, nil
	}

	var result model.LoginResult
	if jsonErr := json.Unmarshal(body, &result); jsonErr != nil {
		if is2xx(status) {
			return model.LoginResult{}, parseError(op, jsonErr)
		}
		return model.LoginResult{
			Success: false,
			Message: fmt.Sprintf("authentication failed (HTTP %d)", status),
		}, nil
	}
	return result, nil
}

func messageCode(err error) string {
	switch ErrKind(err) {
	case KindUnreachable:
		return MsgServerUnreachable
	case KindTimeout:
		return MsgConnectionTimeout
	case KindHostNotFound:
		return MsgHostNotFound
	}
	return MsgNetworkError
}

type usernameInput struct {
	Username string `json:"username" validate:"required"`
}

// RegisterUser creates an account via POST /auth/register. The backend
// answers with the same envelope as login.
func (c *Client) RegisterUser(ctx context.Context, username, password, role string) (model.LoginResult, error) {
	const op = "register user"
	in := struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
		Role     string `json:"role,omitempty"`
	}{username, password, role}
	if err := check(op, in); err != nil {
		return model.LoginResult{}, err
	}

	status, body, err := c.do(ctx, op, http.MethodPost, "/auth/register", nil, in)
	if err != nil {
		return model.LoginResult{}, err
	}
	var result model.LoginResult
	if jsonErr := json.Unmarshal(body, &result); jsonErr != nil {
		if is2xx(status) {
			return model.LoginResult{}, parseError(op, jsonErr)
		}
		return model.LoginResult{}, httpError(op, status)
	}
	return result, nil
}

// ValidateUser asks the backend whether username holds the admin role.
func (c *Client) ValidateUser(ctx context.Context, username string) (bool, error) {
	const op = "validate user"
	if err := check(op, usernameInput{Username: username}); err != nil {
		return false, err
	}

	status, body, err := c.do(ctx, op, http.MethodGet, "/auth/validate/"+url.PathEscape(username), nil, nil)
	if err != nil {
		return false, err
	}
	if !is2xx(status) {
		return false, httpError(op, status)
	}
	var result struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if jsonErr := json.Unmarshal(body, &result); jsonErr != nil {
		return false, parseError(op, jsonErr)
	}
	return result.IsAdmin, nil
}

// DeleteUser removes an account on behalf of an administrator.
func (c *Client) DeleteUser(ctx context.Context, usernameToDelete, adminUsername string) (bool, error) {
	const op = "delete user"
	in := struct {
		UsernameToDelete string `json:"usernameToDelete" validate:"required"`
		AdminUsername    string `json:"adminUsername" validate:"required"`
	}{usernameToDelete, adminUsername}
	if err := check(op, in); err != nil {
		return false, err
	}

	status, body, err := c.do(ctx, op, http.MethodPost, "/auth/delete-user", nil, in)
	if err != nil {
		return false, err
	}
	if !is2xx(status) {
		return false, httpError(op, status)
	}
	var result struct {
		Success bool `json:"success"`
	}
	if jsonErr := json.Unmarshal(body, &result); jsonErr != nil {
		return false, parseError(op, jsonErr)
	}
	return result.Success, nil
}

// GetRfidUID returns the RFID card UID registered for username.
// ok is false when no card is registered (or the user is unknown).
func (c *Client) GetRfidUID(ctx context.Context, username string) (string, bool, error) {
	const op = "get rfid uid"
	if err := check(op, usernameInput{Username: username}); err != nil {
		return "", false, err
	}

	status, body, err := c.do(ctx, op, http.MethodGet, "/auth/rfid/"+url.PathEscape(username), nil, nil)
	if err != nil {
		return "", false, err
	}
	if status == http.StatusNotFound {
		return "", false, nil
	}
	if !is2xx(status) {
		return "", false, httpError(op, status)
	}
	var result struct {
		Success bool   `json:"success"`
		RfidUID string `json:"rfidUid"`
	}
	if jsonErr := json.Unmarshal(body, &result); jsonErr != nil {
		return "", false, parseError(op, jsonErr)
	}
	return result.RfidUID, result.Success && result.RfidUID != "", nil
}

// InitiateRfidRegistration opens the server's 30-second registration
// window for username. The next card scanned within the window is
// bound to the account.
func (c *Client) InitiateRfidRegistration(ctx context.Context, username string) error {
	const op = "initiate rfid registration"
	in := usernameInput{Username: username}
	if err := check(op, in); err != nil {
		return err
	}

	status, _, err := c.do(ctx, op, http.MethodPost, "/auth/rfid/register", nil, in)
	if err != nil {
		return err
	}
	if !is2xx(status) {
		return httpError(op, status)
	}
	return nil
}

// CancelRfidRegistration closes the registration window, best effort.
// If a card was scanned before the cancel arrives the bind may still
// take effect on the server.
func (c *Client) CancelRfidRegistration(ctx context.Context, username string) error {
	const op = "cancel rfid registration"
	in := usernameInput{Username: username}
	if err := check(op, in); err != nil {
		return err
	}

	status, _, err := c.do(ctx, op, http.MethodPost, "/auth/rfid/cancel", nil, in)
	if err != nil {
		return err
	}
	if !is2xx(status) {
		return httpError(op, status)
	}
	return nil
}
