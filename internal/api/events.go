package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"casalink/internal/model"
)

// ListRecentEvents returns the audit log for the last hoursWindow
// hours, most recent first (server order preserved).
func (c *Client) ListRecentEvents(ctx context.Context, hoursWindow int) ([]model.Event, error) {
	const op = "list recent events"
	in := struct {
		Hours int `validate:"gt=0"`
	}{hoursWindow}
	if err := check(op, in); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("hours", strconv.Itoa(hoursWindow))
	status, body, err := c.do(ctx, op, http.MethodGet, "/events/recent", query, nil)
	if err != nil {
		return nil, err
	}
	if !is2xx(status) {
		return nil, httpError(op, status)
	}
	var events []model.Event
	if jsonErr := json.Unmarshal(body, &events); jsonErr != nil {
		return nil, parseError(op, jsonErr)
	}
	return events, nil
}
