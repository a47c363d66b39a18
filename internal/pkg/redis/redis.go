package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/tempsentry/tempsentry/internal/pkg/config"
)

const (
	draftPrefix      = "draft/"
	alarmCountPrefix = "alarmcount/"
)

// ErrNotFound is returned when a key has expired or never existed.
var ErrNotFound = fmt.Errorf("redis: nil")

type Client struct {
	client redis.Client
}

func NewRedisClient(redisURL string, tlsEnabled bool) (Client, error) {
	redisClient := Client{}
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return redisClient, err
	}
	if tlsEnabled {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	redisClient.client = *redis.NewClient(options)

	return redisClient, nil
}

// WriteDraft stores an encrypted draft blob under the session id. Drafts are
// working state, not records, so they expire on their own.
func (c *Client) WriteDraft(id, value string, ctx context.Context) error {
	return c.client.Set(ctx, fmt.Sprintf("%s%s", draftPrefix, id), value, config.DraftTTL).Err()
}

func (c *Client) ReadDraft(id string, ctx context.Context) (string, error) {
	val, err := c.client.Get(ctx, fmt.Sprintf("%s%s", draftPrefix, id)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return val, nil
}

func (c *Client) DeleteDraft(id string, ctx context.Context) error {
	return c.client.Del(ctx, fmt.Sprintf("%s%s", draftPrefix, id)).Err()
}

func (c *Client) WriteAlarmCounts(coalitionID string, counts config.AlarmCounts, ctx context.Context) error {
	j, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fmt.Sprintf("%s%s", alarmCountPrefix, coalitionID), string(j), 0).Err()
}

func (c *Client) ReadAlarmCounts(coalitionID string, ctx context.Context) (config.AlarmCounts, error) {
	counts := config.AlarmCounts{}
	val, err := c.client.Get(ctx, fmt.Sprintf("%s%s", alarmCountPrefix, coalitionID)).Result()
	if err == redis.Nil {
		return counts, ErrNotFound
	}
	if err != nil {
		return counts, err
	}

	err = json.Unmarshal([]byte(val), &counts)
	if err != nil {
		return counts, err
	}

	return counts, nil
}

// ReadAllAlarmCounts returns the cached counts for every polled coalition.
func (c *Client) ReadAllAlarmCounts(ctx context.Context) (map[string]config.AlarmCounts, error) {
	all := make(map[string]config.AlarmCounts)
	keys := c.client.Keys(ctx, fmt.Sprintf("%s*", alarmCountPrefix)).Val()
	for _, k := range keys {
		val, err := c.client.Get(ctx, k).Result()
		if err != nil {
			return all, err
		}
		counts := config.AlarmCounts{}
		err = json.Unmarshal([]byte(val), &counts)
		if err != nil {
			return all, err
		}
		all[strings.TrimPrefix(k, alarmCountPrefix)] = counts
	}

	return all, nil
}
