package storage

import (
	"context"
	"fmt"
	"os"

	apperrors "github.com/ArmandoArias/ia-videodog/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// LoadAWSConfig builds the shared SDK configuration used by every AWS
// client in the process. Static credentials and a custom endpoint are
// optional; without them the default provider chain applies.
func LoadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: cfg.Endpoint}, nil
			})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "unable to load SDK config")
	}
	return awsCfg, nil
}

type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader moves local audio files into the bucket. Uploads are
// idempotent: an object already present under the key is never
// transferred again.
type Uploader struct {
	client s3API
	bucket string
	log    *logrus.Logger
}

func NewUploader(client s3API, bucket string, log *logrus.Logger) *Uploader {
	return &Uploader{client: client, bucket: bucket, log: log}
}

// Exists reports whether the key is already present in the bucket. A
// not-found response is a normal false; any other remote error is fatal.
func (u *Uploader) Exists(ctx context.Context, key string) (bool, error) {
	const op = "Uploader.Exists"

	_, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
			return false, nil
		}
		return false, apperrors.Storage(op, err, "Error al verificar el archivo en S3.")
	}
	return true, nil
}

// Upload stores localPath under key and returns the object URI. The
// transfer is skipped when the destination already holds the object.
func (u *Uploader) Upload(ctx context.Context, localPath, key string) (string, error) {
	const op = "Uploader.Upload"

	if _, err := os.Stat(localPath); err != nil {
		return "", apperrors.Storage(op, err, "El archivo de audio no fue encontrado.")
	}

	uri := fmt.Sprintf("s3://%s/%s", u.bucket, key)

	exists, err := u.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		u.log.WithFields(logrus.Fields{"bucket": u.bucket, "key": key}).
			Info("Audio already present in S3, skipping upload")
		return uri, nil
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", apperrors.Storage(op, err, "El archivo de audio no fue encontrado.")
	}
	defer file.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return "", apperrors.Storage(op, err, "Error al subir el archivo a S3.")
	}

	u.log.WithFields(logrus.Fields{"bucket": u.bucket, "key": key}).
		Info("Audio uploaded to S3")
	return uri, nil
}
