package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"casalink/internal/model"
)

type roomInput struct {
	Room string `validate:"required"`
}

// ListRooms fetches every room in server order. Failures are returned
// as classified errors instead of an empty list, so the caller decides
// how to degrade.
func (c *Client) ListRooms(ctx context.Context) ([]model.Room, error) {
	const op = "list rooms"
	status, body, err := c.do(ctx, op, http.MethodGet, "/rooms", nil, nil)
	if err != nil {
		return nil, err
	}
	if !is2xx(status) {
		return nil, httpError(op, status)
	}
	var rooms []model.Room
	if jsonErr := json.Unmarshal(body, &rooms); jsonErr != nil {
		return nil, parseError(op, jsonErr)
	}
	return rooms, nil
}

// GetRoom fetches one room by name. ok is false when the room does
// not exist.
func (c *Client) GetRoom(ctx context.Context, name string) (model.Room, bool, error) {
	const op = "get room"
	if err := check(op, roomInput{Room: name}); err != nil {
		return model.Room{}, false, err
	}

	status, body, err := c.do(ctx, op, http.MethodGet, "/rooms/"+url.PathEscape(name), nil, nil)
	if err != nil {
		return model.Room{}, false, err
	}
	if status == http.StatusNotFound {
		return model.Room{}, false, nil
	}
	if !is2xx(status) {
		return model.Room{}, false, httpError(op, status)
	}
	var room model.Room
	if jsonErr := json.Unmarshal(body, &room); jsonErr != nil {
		return model.Room{}, false, parseError(op, jsonErr)
	}
	return room, true, nil
}

// CreateRoom registers a new room owned by username. The returned bool
// is the server-reported success field.
func (c *Client) CreateRoom(ctx context.Context, name, username string) (bool, error) {
	const op = "create room"
	in := struct {
		Room     string `validate:"required"`
		Username string `validate:"required"`
	}{name, username}
	if err := check(op, in); err != nil {
		return false, err
	}

	query := url.Values{}
	query.Set("roomName", name)
	query.Set("username", username)
	status, body, err := c.do(ctx, op, http.MethodPost, "/rooms", query, nil)
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

// DeleteRoom removes a room on behalf of requester.
func (c *Client) DeleteRoom(ctx context.Context, name, requester string) (bool, error) {
	const op = "delete room"
	in := struct {
		Room     string `validate:"required"`
		Username string `validate:"required"`
	}{name, requester}
	if err := check(op, in); err != nil {
		return false, err
	}

	query := url.Values{}
	query.Set("username", requester)
	status, _, err := c.do(ctx, op, http.MethodDelete, "/rooms/"+url.PathEscape(name), query, nil)
	if err != nil {
		return false, err
	}
	if !is2xx(status) {
		return false, httpError(op, status)
	}
	return true, nil
}

// SetLight issues a light-toggle command for the room. The result is
// "command sent", not "device changed": only CommandRejected should
// make the caller roll back an optimistic UI update.
func (c *Client) SetLight(ctx context.Context, room string, state bool) (model.CommandResult, error) {
	return c.sendDeviceCommand(ctx, "set light", room, model.DeviceLight, state)
}

// SetAlarm issues an alarm/sensor-toggle command for the room.
func (c *Client) SetAlarm(ctx context.Context, room string, state bool) (model.CommandResult, error) {
	return c.sendDeviceCommand(ctx, "set alarm", room, model.DeviceAlarm, state)
}

func (c *Client) sendDeviceCommand(ctx context.Context, op, room, device string, state bool) (model.CommandResult, error) {
	if err := check(op, roomInput{Room: room}); err != nil {
		return model.CommandRejected, err
	}

	query := url.Values{}
	query.Set("state", strconv.FormatBool(state))
	path := "/rooms/" + url.PathEscape(room) + "/" + device
	status, body, err := c.do(ctx, op, http.MethodPost, path, query, nil)
	if err != nil {
		return model.CommandRejected, err
	}
	if !is2xx(status) {
		return model.CommandRejected, httpError(op, status)
	}

	// 2xx with an unparsable body is treated optimistically: the server
	// took the request even if it spoke an unexpected dialect.
	var result struct {
		Status string `json:"status"`
	}
	if jsonErr := json.Unmarshal(body, &result); jsonErr != nil || result.Status == "" {
		return model.CommandAcceptedUnconfirmed, nil
	}
	if result.Status == "PENDING" {
		return model.CommandAcceptedPending, nil
	}
	// Parsed body with an explicit non-pending status is a rejection.
	return model.CommandRejected, nil
}
