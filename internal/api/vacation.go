package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// GetVacationMode polls the server-side vacation flag.
func (c *Client) GetVacationMode(ctx context.Context) (bool, error) {
	const op = "get vacation mode"
	status, body, err := c.do(ctx, op, http.MethodGet, "/vacation-mode/status", nil, nil)
	if err != nil {
		return false, err
	}
	if !is2xx(status) {
		return false, httpError(op, status)
	}
	var result struct {
		Active bool `json:"active"`
	}
	if jsonErr := json.Unmarshal(body, &result); jsonErr != nil {
		return false, parseError(op, jsonErr)
	}
	return result.Active, nil
}

// SetVacationMode activates or deactivates vacation mode. The returned
// bool means the request was accepted, not that enforcement happened;
// enforcement is server-side.
func (c *Client) SetVacationMode(ctx context.Context, active bool) (bool, error) {
	op := "deactivate vacation mode"
	path := "/vacation-mode/deactivate"
	if active {
		op = "activate vacation mode"
		path = "/vacation-mode/activate"
	}

	status, _, err := c.do(ctx, op, http.MethodPost, path, nil, nil)
	if err != nil {
		return false, err
	}
	if !is2xx(status) {
		return false, httpError(op, status)
	}
	return true, nil
}
