package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"casalink/internal/model"
)

// ListSchedules returns the schedules configured for a room.
func (c *Client) ListSchedules(ctx context.Context, room string) ([]model.Schedule, error) {
	const op = "list schedules"
	if err := check(op, roomInput{Room: room}); err != nil {
		return nil, err
	}

	path := "/rooms/" + url.PathEscape(room) + "/schedules"
	status, body, err := c.do(ctx, op, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if !is2xx(status) {
		return nil, httpError(op, status)
	}
	var schedules []model.Schedule
	if jsonErr := json.Unmarshal(body, &schedules); jsonErr != nil {
		return nil, parseError(op, jsonErr)
	}
	return schedules, nil
}

// CreatePunctualSchedule creates a one-shot schedule firing at an
// HH:MM time of day.
func (c *Client) CreatePunctualSchedule(ctx context.Context, room, name, deviceType string, state bool, timeOfDay string) (bool, error) {
	const op = "create punctual schedule"
	in := struct {
		Room string `validate:"required"`
		Type string `validate:"required,oneof=light alarm"`
		Time string `validate:"required,datetime=15:04"`
	}{room, deviceType, timeOfDay}
	if err := check(op, in); err != nil {
		return false, err
	}

	query := url.Values{}
	query.Set("name", name)
	query.Set("type", deviceType)
	query.Set("state", strconv.FormatBool(state))
	query.Set("time", timeOfDay)
	return c.postSchedule(ctx, op, room, query)
}

// CreateIntervalSchedule creates a range schedule holding the device
// on between startTime and endTime.
func (c *Client) CreateIntervalSchedule(ctx context.Context, room, name, deviceType, startTime, endTime string) (bool, error) {
	const op = "create interval schedule"
	in := struct {
		Room  string `validate:"required"`
		Type  string `validate:"required,oneof=light alarm"`
		Start string `validate:"required,datetime=15:04"`
		End   string `validate:"required,datetime=15:04"`
	}{room, deviceType, startTime, endTime}
	if err := check(op, in); err != nil {
		return false, err
	}

	query := url.Values{}
	query.Set("name", name)
	query.Set("type", deviceType)
	query.Set("state", "true")
	query.Set("startTime", startTime)
	query.Set("endTime", endTime)
	return c.postSchedule(ctx, op, room, query)
}

func (c *Client) postSchedule(ctx context.Context, op, room string, query url.Values) (bool, error) {
	path := "/rooms/" + url.PathEscape(room) + "/schedules"
	status, _, err := c.do(ctx, op, http.MethodPost, path, query, nil)
	if err != nil {
		return false, err
	}
	if !is2xx(status) {
		return false, httpError(op, status)
	}
	return true, nil
}

// DeleteSchedule removes a schedule by its server-assigned id.
func (c *Client) DeleteSchedule(ctx context.Context, room string, id int64) (bool, error) {
	const op = "delete schedule"
	in := struct {
		Room string `validate:"required"`
		ID   int64  `validate:"gt=0"`
	}{room, id}
	if err := check(op, in); err != nil {
		return false, err
	}

	path := "/rooms/" + url.PathEscape(room) + "/schedules/" + strconv.FormatInt(id, 10)
	status, _, err := c.do(ctx, op, http.MethodDelete, path, nil, nil)
	if err != nil {
		return false, err
	}
	if !is2xx(status) {
		return false, httpError(op, status)
	}
	return true, nil
}
