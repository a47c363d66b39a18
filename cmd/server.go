package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/tempsentry/tempsentry/internal/pkg/aws"
	"github.com/tempsentry/tempsentry/internal/pkg/clients"
	"github.com/tempsentry/tempsentry/internal/pkg/config"
	"github.com/tempsentry/tempsentry/internal/pkg/crypto"
	"github.com/tempsentry/tempsentry/internal/pkg/datadog"
	"github.com/tempsentry/tempsentry/internal/pkg/redis"
	"github.com/tempsentry/tempsentry/internal/pkg/sensorapi"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	logger  *zap.SugaredLogger
	version = "unknown"
)

func runServer() {
	l, _ := zap.NewProduction()
	logger = l.Sugar().Named("tempsentry_server")
	defer logger.Sync()
	logger.Infof("Running server version: %s", version)

	serverConfig := buildServerConfig()

	serverClients, err := createClients(serverConfig)
	if err != nil {
		logger.Fatalf("Error creating clients: %s", err)
	}

	webServer := newWebServer(serverConfig, serverClients)

	pollAlarmCounts(serverClients, serverConfig)

	if serverConfig.S3Config.BackupEnabled {
		runProfileSnapshot(serverClients, serverConfig)
	}

	configureCronJobs(serverClients, serverConfig)

	err = webServer.httpServer.ListenAndServe()
	if err != nil {
		logger.Fatalf("Error starting web server: %s", err)
	}
}

func buildServerConfig() config.ServerConfig {
	return config.ServerConfig{
		AppName:        viper.GetString("APP_NAME"),
		SensorAPIURL:   viper.GetString("SENSOR_API_URL"),
		SensorAPIToken: viper.GetString("SENSOR_API_TOKEN"),
		RedisURL:       viper.GetString("REDIS_URL"),
		RedisTLSURL:    viper.GetString("REDIS_TLS_URL"),
		Port:           viper.GetString("PORT"),
		MockMode:       viper.GetBool("MOCK_MODE"),
		CoalitionIDs:   viper.GetStringSlice("COALITION_IDS"),
		AllowedAPIKeys: viper.GetStringSlice("ALLOWED_API_KEYS"),
		GoogleConfig: config.GoogleConfig{
			AuthorizedUsers: viper.GetString("AUTHORIZED_USERS"),
			ClientId:        viper.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret:    viper.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:     viper.GetString("REDIRECT_URL"),
			SessionSecret:   viper.GetString("SESSION_SECRET"),
		},
		DatadogConfig: config.DatadogConfig{
			APIKey: viper.GetString("DD_API_KEY"),
			APPKey: viper.GetString("DD_APP_KEY"),
		},
		S3Config: config.S3Config{
			AccessKeyID:     viper.GetString("SPACES_AWS_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("SPACES_AWS_SECRET_ACCESS_KEY"),
			Region:          viper.GetString("SPACES_AWS_REGION"),
			URL:             viper.GetString("SPACES_URL"),
			Bucket:          viper.GetString("SPACES_BUCKET_NAME"),
			BackupEnabled:   viper.GetBool("PROFILE_BACKUP_ENABLED"),
		},
		EncryptionKey: viper.GetString("ENCRYPTION_KEY"),
		Version:       version,
	}
}

func configureCronJobs(serverClients clients.ServerClients, serverConfig config.ServerConfig) {
	alarmTicker := time.NewTicker(config.AlarmCountPollFrequency)
	go func() {
		for range alarmTicker.C {
			pollAlarmCounts(serverClients, serverConfig)
		}
	}()

	if serverConfig.S3Config.BackupEnabled {
		backupTicker := time.NewTicker(config.ProfileBackupFrequency)
		go func() {
			for range backupTicker.C {
				runProfileSnapshot(serverClients, serverConfig)
			}
		}()
	}
}

// pollAlarmCounts fetches open alarm totals for every configured coalition,
// caches them in redis for the dashboard, and publishes gauges.
func pollAlarmCounts(serverClients clients.ServerClients, serverConfig config.ServerConfig) {
	ctx := context.Background()
	for _, coalitionID := range serverConfig.CoalitionIDs {
		counts, err := serverClients.SensorAPI.AlarmCounts(ctx, coalitionID)
		if err != nil {
			logger.Errorf("polling alarm counts for coalition %s: %s", coalitionID, err)
			continue
		}

		if err := serverClients.Redis.WriteAlarmCounts(coalitionID, counts, ctx); err != nil {
			logger.Errorf("caching alarm counts for coalition %s: %s", coalitionID, err)
		}

		if !serverConfig.MockMode {
			if err := serverClients.DDClient.PublishAlarmCounts(ctx, coalitionID, counts); err != nil {
				logger.Errorf("publishing alarm count metrics for coalition %s: %s", coalitionID, err)
			}
		}
	}
}

func runProfileSnapshot(serverClients clients.ServerClients, serverConfig config.ServerConfig) {
	logger.Info("Running alarm profile snapshot")
	ctx := context.Background()

	profiles, err := collectAllProfiles(ctx, serverClients)
	if err != nil {
		logger.Errorf("collecting profiles for snapshot: %s", err)
		return
	}

	if err := serverClients.AWS.DownloadOrCreateSnapshotFile(ctx); err != nil {
		logger.Errorf("downloading or creating snapshot file: %s", err)
		return
	}

	if err := serverClients.AWS.WriteSnapshotFile(profiles); err != nil {
		logger.Errorf("writing snapshot tmp file: %s", err)
		return
	}

	if err := serverClients.AWS.UploadSnapshotFile(ctx); err != nil {
		logger.Errorf("uploading snapshot file to S3: %s", err)
		return
	}

	logger.Infof("Profile snapshot to S3 success, number of profiles backed up: %d", len(profiles))
}

func createClients(serverConfig config.ServerConfig) (clients.ServerClients, error) {
	var redisClient redis.Client
	var err error

	if serverConfig.RedisTLSURL != "" {
		redisClient, err = redis.NewRedisClient(serverConfig.RedisTLSURL, true)
	} else {
		redisClient, err = redis.NewRedisClient(serverConfig.RedisURL, false)
	}

	if err != nil {
		return clients.ServerClients{}, fmt.Errorf("creating redis client: %s", err)
	}

	sensorAPIClient := sensorapi.NewClient(serverConfig.SensorAPIURL, serverConfig.SensorAPIToken, logger)

	awsClient, err := aws.NewClient(serverConfig)
	if err != nil {
		return clients.ServerClients{}, fmt.Errorf("error creating AWS client: %s", err)
	}
	ddClient := datadog.NewDatadogClient(serverConfig.DatadogConfig.APIKey, serverConfig.DatadogConfig.APPKey)

	cryptoUtil, err := crypto.NewUtil(serverConfig.EncryptionKey)
	if err != nil {
		return clients.ServerClients{}, fmt.Errorf("error creating crypto client: %s", err)
	}

	return clients.ServerClients{
		Redis:      redisClient,
		SensorAPI:  sensorAPIClient,
		AWS:        awsClient,
		DDClient:   ddClient,
		CryptoUtil: cryptoUtil,
	}, nil
}
