package aws

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sConfig "github.com/tempsentry/tempsentry/internal/pkg/config"
	"github.com/tempsentry/tempsentry/internal/pkg/profile"
)

const (
	snapshotPrefix = "profile-snapshots"
)

type Client struct {
	S3              *s3.Client
	Bucket          string
	SnapshotFileKey string
	TmpWritePath    string
}

func NewClient(serverConfig sConfig.ServerConfig) (Client, error) {
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(serverConfig.S3Config.AccessKeyID, serverConfig.S3Config.SecretAccessKey, "")),
	)
	if err != nil {
		return Client{}, err
	}
	cfg.Region = serverConfig.S3Config.Region

	client := s3.NewFromConfig(cfg)

	return Client{
		S3:              client,
		Bucket:          serverConfig.S3Config.Bucket,
		SnapshotFileKey: fmt.Sprintf("%s/%s", snapshotPrefix, serverConfig.AppName),
		TmpWritePath:    fmt.Sprintf("/tmp/%s-profiles", serverConfig.AppName),
	}, nil
}

func (c *Client) UploadSnapshotFile(ctx context.Context) error {
	file, err := os.Open(c.TmpWritePath)
	if err != nil {
		return err
	}

	uploader := manager.NewUploader(c.S3)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(c.SnapshotFileKey),
		Body:   file,
	})
	if err != nil {
		return err
	}

	return nil
}

func (c *Client) snapshotFileExists(ctx context.Context) (bool, error) {
	paginator := s3.NewListObjectsV2Paginator(c.S3, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.Bucket),
		Prefix: aws.String(snapshotPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return false, err
		}
		for _, obj := range page.Contents {
			if *obj.Key == c.SnapshotFileKey {
				return true, nil
			}
		}
	}
	return false, nil
}

func (c *Client) DownloadOrCreateSnapshotFile(ctx context.Context) error {
	tmpFile, err := os.Create(c.TmpWritePath)
	if err != nil {
		return err
	}
	defer tmpFile.Close()

	exists, err := c.snapshotFileExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		downloader := manager.NewDownloader(c.S3)
		_, err = downloader.Download(ctx, tmpFile, &s3.GetObjectInput{
			Bucket: aws.String(c.Bucket),
			Key:    aws.String(c.SnapshotFileKey),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// WriteSnapshotFile appends one JSON line per alarm profile to the working
// file. The caller downloads the existing snapshot first so the object grows
// into a history rather than being rewritten.
func (c *Client) WriteSnapshotFile(profiles []profile.ServerProfile) error {
	file, err := os.OpenFile(c.TmpWritePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	datawriter := bufio.NewWriter(file)
	for _, p := range profiles {
		j, err := json.Marshal(p)
		if err != nil {
			return err
		}
		_, err = datawriter.WriteString(fmt.Sprintf("%s\n", string(j)))
		if err != nil {
			return err
		}
	}
	datawriter.Flush()
	return nil
}
