package sensorapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tempsentry/tempsentry/internal/pkg/profile"
)

func profileGeneralFixture() profile.GeneralSettingsPayload {
	return profile.GeneralSettingsPayload{
		Name:                 "Freezer Farm",
		Enabled:              true,
		DelayBeforeRepeating: 30,
		RecoveryTime:         5,
	}
}

func testClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token", zap.NewNop().Sugar())
}

func Test_ProfileDetails(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alarm_profiles/details", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("profile_id"))
		fmt.Fprint(w, `{
			"id": 42,
			"name": "Freezer Farm",
			"enabled": true,
			"delay_before_repeating": 30,
			"recovery_time": 5,
			"send_acknowledgment": true,
			"automatically_close": false,
			"group": {"id": "7", "name": "Warehouse"},
			"coalition": {"id": "2", "name": "Acme Cold"},
			"sensors": [{"sensor_id": "s-1", "sensor_name": "Freezer A", "sensor_type": "temperature"}],
			"escalations": [null, {"level": 2, "delay_before_sending": 10, "is_active": true, "targets": [{"type": "user", "username": "jdoe", "email": "j@x.com", "email_enabled": true, "schedule": "all_the_time"}]}],
			"thresholds": {"lowbattery": 20, "connectivity": null, "notreadingdata": 15, "data": {"1": {"upper": 8, "lower": -2}}}
		}`)
	})

	sp, err := c.ProfileDetails(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Freezer Farm", sp.Name)
	require.Len(t, sp.Escalations, 2)
	assert.Nil(t, sp.Escalations[0])
	assert.Equal(t, 2, sp.Escalations[1].Level)
	require.Len(t, sp.Escalations[1].Targets, 1)
	assert.Equal(t, "jdoe", sp.Escalations[1].Targets[0].Label())
}

func Test_Failure_ServerMessagePriority(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"profile name already in use","msg":"other"}`)
	})

	_, err := c.ProfileDetails(context.Background(), "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile name already in use")
}

func Test_Failure_MsgFallback(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"msg":"not allowed"}`)
	})

	err := c.EditSensors(context.Background(), "42", []string{"s-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")
}

func Test_Failure_NoParseableBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `<html>gateway error</html>`)
	})

	err := c.EditGeneralSettings(context.Background(), "42", profileGeneralFixture())
	require.Error(t, err)
	assert.Equal(t, "failed to save general settings", err.Error())
}

func Test_ListSensors_MislabeledContentType(t *testing.T) {
	// the upstream API has been seen serving JSON as text/plain; the client
	// must decode by body, not by header
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, `{"sensors":[{"sensor_id":"s-1","sensor_name":"Freezer A","sensor_type":"temperature","status":"ONLINE"}],"num_pages":3}`)
	})

	sensors, numPages, err := c.ListSensors(context.Background(), "7", 1, "")
	require.NoError(t, err)
	assert.Equal(t, 3, numPages)
	require.Len(t, sensors, 1)
	assert.Equal(t, "Freezer A", sensors[0].SensorName)
}

func Test_ListSensors(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sensors", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("group_id"))
		assert.Equal(t, "freezer", r.URL.Query().Get("search"))
		fmt.Fprint(w, `{"sensors":[{"sensor_id":"s-1","sensor_name":"Freezer A","sensor_type":"temperature","last_reading":-4.5,"battery_level":80,"status":"ONLINE"}],"num_pages":3}`)
	})

	sensors, numPages, err := c.ListSensors(context.Background(), "7", 1, "freezer")
	require.NoError(t, err)
	assert.Equal(t, 3, numPages)
	require.Len(t, sensors, 1)
	assert.Equal(t, "Freezer A", sensors[0].SensorName)
}
