package datadog

import (
	"context"
	"fmt"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"github.com/tempsentry/tempsentry/internal/pkg/config"
)

type Client struct {
	api    *datadogV2.MetricsApi
	apiKey string
	appKey string
}

func NewDatadogClient(apiKey, appKey string) Client {
	configuration := datadog.NewConfiguration()
	apiClient := datadog.NewAPIClient(configuration)
	api := datadogV2.NewMetricsApi(apiClient)

	return Client{
		api:    api,
		apiKey: apiKey,
		appKey: appKey,
	}
}

// PublishAlarmCounts submits one gauge per alarm category for a coalition.
func (c *Client) PublishAlarmCounts(ctx context.Context, coalitionID string, counts config.AlarmCounts) error {
	valueCtx := context.WithValue(
		ctx,
		datadog.ContextAPIKeys,
		map[string]datadog.APIKey{
			"apiKeyAuth": {
				Key: c.apiKey,
			},
			"appKeyAuth": {
				Key: c.appKey,
			},
		},
	)

	now := time.Now().Unix()
	categories := map[string]int{
		"threshold":    counts.Threshold,
		"battery":      counts.Battery,
		"connectivity": counts.Connectivity,
		"notreading":   counts.NotReading,
	}

	var series []datadogV2.MetricSeries
	for category, count := range categories {
		series = append(series, datadogV2.MetricSeries{
			Metric: fmt.Sprintf("tempsentry.alarms.%s", category),
			Type:   datadogV2.METRICINTAKETYPE_GAUGE.Ptr(),
			Points: []datadogV2.MetricPoint{
				{
					Timestamp: datadog.PtrInt64(now),
					Value:     datadog.PtrFloat64(float64(count)),
				},
			},
			Resources: []datadogV2.MetricResource{
				{
					Type: datadog.PtrString("coalition"),
					Name: datadog.PtrString(coalitionID),
				},
			},
		})
	}

	body := datadogV2.MetricPayload{
		Series: series,
	}

	_, _, err := c.api.SubmitMetrics(valueCtx, body, *datadogV2.NewSubmitMetricsOptionalParameters())
	if err != nil {
		return fmt.Errorf("submitting metrics: %s", err)
	}

	return nil
}
