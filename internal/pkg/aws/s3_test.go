package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sConfig "github.com/tempsentry/tempsentry/internal/pkg/config"
)

func Test_NewClient(t *testing.T) {
	c, err := NewClient(sConfig.ServerConfig{
		AppName: "tempsentry",
		S3Config: sConfig.S3Config{
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
			Region:          "us-east-1",
			Bucket:          "tempsentry-backups",
		},
	})
	require.NoError(t, err)

	assert.NotNil(t, c.S3)
	assert.Equal(t, "tempsentry-backups", c.Bucket)
	assert.Equal(t, "profile-snapshots/tempsentry", c.SnapshotFileKey)
	assert.Equal(t, "/tmp/tempsentry-profiles", c.TmpWritePath)
}
