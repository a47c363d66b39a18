package clients

import (
	"github.com/tempsentry/tempsentry/internal/pkg/aws"
	"github.com/tempsentry/tempsentry/internal/pkg/crypto"
	"github.com/tempsentry/tempsentry/internal/pkg/datadog"
	"github.com/tempsentry/tempsentry/internal/pkg/redis"
	"github.com/tempsentry/tempsentry/internal/pkg/sensorapi"
)

type ServerClients struct {
	Redis      redis.Client
	SensorAPI  sensorapi.Client
	AWS        aws.Client
	DDClient   datadog.Client
	CryptoUtil crypto.Util
}
