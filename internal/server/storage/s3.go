package storage

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/annotrack/internal/filex"
	sc "github.com/dmitrijs2005/annotrack/internal/server/config"
	"github.com/dmitrijs2005/annotrack/internal/server/models"
)

var loadDefaultAWSConfig = config.LoadDefaultConfig

// objectAPI is the part of *s3.Client used by S3Store.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps files in a bucket under <prefix><project id>/<original name>.
type S3Store struct {
	client objectAPI
	bucket string
	prefix string
}

// NewS3Store builds a client from the S3 settings in cfg. Static credentials
// are used when S3RootUser is set; a non-empty S3BaseEndpoint switches to
// path-style addressing for S3 compatible servers such as MinIO.
func NewS3Store(ctx context.Context, cfg *sc.Config) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.S3Region)}
	if cfg.S3RootUser != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg.S3Bucket, cfg.S3KeyPrefix), nil
}

func newS3Store(client objectAPI, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) projectPrefix(projectID int64) string {
	return s.prefix + strconv.FormatInt(projectID, 10) + "/"
}

// Relocate uploads each staged file and deletes the staged copy once the
// upload succeeded.
func (s *S3Store) Relocate(ctx context.Context, projectID int64, files []models.UploadedFile) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		name, err := SafeName(f.OriginalName)
		if err != nil {
			return err
		}

		if err := s.upload(ctx, s.projectPrefix(projectID)+name, f.StagingPath); err != nil {
			return err
		}

		if err := filex.RemoveIfExists(f.StagingPath); err != nil {
			return fmt.Errorf("remove staged %s: %w", f.StagingPath, err)
		}
	}
	return nil
}

func (s *S3Store) upload(ctx context.Context, key, path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open staged %s: %w", path, err)
	}
	defer fh.Close()

	st, err := fh.Stat()
	if err != nil {
		return fmt.Errorf("stat staged %s: %w", path, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          fh,
		ContentLength: aws.Int64(st.Size()),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3: %w", err)
	}
	return nil
}

// Remove deletes every object under the project prefix.
func (s *S3Store) Remove(ctx context.Context, projectID int64) error {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.projectPrefix(projectID)),
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return fmt.Errorf("failed to delete object: %w", err)
			}
		}
	}
	return nil
}
