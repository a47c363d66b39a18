package config

type ServerConfig struct {
	AppName        string
	SensorAPIURL   string
	SensorAPIToken string
	RedisURL       string
	RedisTLSURL    string
	Port           string
	MockMode       bool
	CoalitionIDs   []string
	AllowedAPIKeys []string
	GoogleConfig   GoogleConfig
	DatadogConfig  DatadogConfig
	S3Config       S3Config
	EncryptionKey  string
	Version        string
}

type GoogleConfig struct {
	AuthorizedUsers string
	ClientId        string
	ClientSecret    string
	RedirectURL     string
	SessionSecret   string
}

type DatadogConfig struct {
	APIKey string
	APPKey string
}

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	URL             string
	Bucket          string
	BackupEnabled   bool
}
