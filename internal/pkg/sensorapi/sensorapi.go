package sensorapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/tempsentry/tempsentry/internal/pkg/config"
	"github.com/tempsentry/tempsentry/internal/pkg/profile"
)

// Client wraps the remote sensor-cloud REST API. Reads are proxied more or
// less verbatim to the dashboard; mutations are single atomic POSTs with no
// client-side retry — the payload assembler is pure, so the user can always
// re-trigger a failed submit.
type Client struct {
	http   *resty.Client
	logger *zap.SugaredLogger
}

func NewClient(baseURL, apiToken string, logger *zap.SugaredLogger) Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(apiToken)

	return Client{
		http:   httpClient,
		logger: logger,
	}
}

// envelope holds the message fields every endpoint may return. Which one is
// populated on failure varies across the remote API, so all three are tried.
type envelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Msg     string `json:"msg"`
}

func (e envelope) reason() string {
	if e.Error != "" {
		return e.Error
	}
	if e.Msg != "" {
		return e.Msg
	}
	return e.Message
}

// failure collapses the three error cases (transport failure, non-2xx with a
// server message, non-2xx with no parseable body) into one error carrying
// the best reason available.
func (c Client) failure(action string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	var env envelope
	if jsonErr := json.Unmarshal(resp.Body(), &env); jsonErr == nil && env.reason() != "" {
		c.logger.Errorf("remote API rejected %s: %s", action, env.reason())
		return fmt.Errorf("failed to %s: %s", action, env.reason())
	}

	c.logger.Errorf("remote API rejected %s with status %d and no message", action, resp.StatusCode())
	return fmt.Errorf("failed to %s", action)
}

func (c Client) ProfileDetails(ctx context.Context, profileID string) (profile.ServerProfile, error) {
	var sp profile.ServerProfile
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("profile_id", profileID).
		SetResult(&sp).
		ForceContentType("application/json").
		Get("/alarm_profiles/details")
	if err != nil || !resp.IsSuccess() {
		return profile.ServerProfile{}, c.failure("get profile details", resp, err)
	}
	return sp, nil
}

func (c Client) AddProfile(ctx context.Context, payload profile.CreatePayload) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/alarm_profiles/add")
	if err != nil || !resp.IsSuccess() {
		return c.failure("create alarm profile", resp, err)
	}
	c.logger.Infof("created alarm profile %s", payload.Name)
	return nil
}

func (c Client) EditGeneralSettings(ctx context.Context, profileID string, payload profile.GeneralSettingsPayload) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("profile_id", profileID).
		SetBody(payload).
		Post("/alarm_profiles/edit_general_settings")
	if err != nil || !resp.IsSuccess() {
		return c.failure("save general settings", resp, err)
	}
	return nil
}

func (c Client) EditSensors(ctx context.Context, profileID string, sensorIDs []string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("profile_id", profileID).
		SetBody(map[string][]string{"sensor_ids": sensorIDs}).
		Post("/alarm_profiles/edit_sensors")
	if err != nil || !resp.IsSuccess() {
		return c.failure("save assigned sensors", resp, err)
	}
	return nil
}

// ProfileSummary is the list-view record for an alarm profile.
type ProfileSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	GroupName   string `json:"group_name"`
	SensorCount int    `json:"sensor_count"`
}

func (c Client) ListProfiles(ctx context.Context, groupID string, page int) ([]ProfileSummary, int, error) {
	var result struct {
		Profiles []ProfileSummary `json:"profiles"`
		NumPages int              `json:"num_pages"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"group_id": groupID,
			"page":     fmt.Sprintf("%d", page),
		}).
		SetResult(&result).
		ForceContentType("application/json").
		Get("/alarm_profiles")
	if err != nil || !resp.IsSuccess() {
		return nil, 0, c.failure("list alarm profiles", resp, err)
	}
	return result.Profiles, result.NumPages, nil
}

func (c Client) ListCoalitions(ctx context.Context) ([]profile.OrgRef, error) {
	var result struct {
		Coalitions []profile.OrgRef `json:"coalitions"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		ForceContentType("application/json").
		Get("/coalitions")
	if err != nil || !resp.IsSuccess() {
		return nil, c.failure("list coalitions", resp, err)
	}
	return result.Coalitions, nil
}

func (c Client) ListGroups(ctx context.Context, coalitionID string) ([]profile.OrgRef, error) {
	var result struct {
		Groups []profile.OrgRef `json:"groups"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("coalition_id", coalitionID).
		SetResult(&result).
		ForceContentType("application/json").
		Get("/groups")
	if err != nil || !resp.IsSuccess() {
		return nil, c.failure("list groups", resp, err)
	}
	return result.Groups, nil
}

func (c Client) ListSensors(ctx context.Context, groupID string, page int, search string) ([]config.Sensor, int, error) {
	var result struct {
		Sensors  []config.Sensor `json:"sensors"`
		NumPages int             `json:"num_pages"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"group_id": groupID,
			"page":     fmt.Sprintf("%d", page),
			"search":   search,
		}).
		SetResult(&result).
		ForceContentType("application/json").
		Get("/sensors")
	if err != nil || !resp.IsSuccess() {
		return nil, 0, c.failure("list sensors", resp, err)
	}
	return result.Sensors, result.NumPages, nil
}

func (c Client) AlarmCounts(ctx context.Context, coalitionID string) (config.AlarmCounts, error) {
	var counts config.AlarmCounts
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("coalition_id", coalitionID).
		SetResult(&counts).
		ForceContentType("application/json").
		Get("/alarms/count")
	if err != nil || !resp.IsSuccess() {
		return config.AlarmCounts{}, c.failure("get alarm counts", resp, err)
	}
	return counts, nil
}
