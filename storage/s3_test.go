package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/ArmandoArias/ia-videodog/errors"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

type fakeS3 struct {
	objects  map[string]struct{}
	headErr  error
	putErr   error
	putCalls int
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[*params.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putCalls++
	if f.putErr != nil {
		return nil, f.putErr
	}
	if f.objects == nil {
		f.objects = make(map[string]struct{})
	}
	f.objects[*params.Key] = struct{}{}
	return &s3.PutObjectOutput{}, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abc123.mp3")
	if err := os.WriteFile(path, []byte("mp3 bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadTransfersOnce(t *testing.T) {
	fake := &fakeS3{}
	uploader := NewUploader(fake, "test-bucket", testLogger())
	path := writeAudioFile(t)

	uri, err := uploader.Upload(context.Background(), path, "audios/abc123.mp3")
	if err != nil {
		t.Fatalf("first Upload() error = %v", err)
	}
	if uri != "s3://test-bucket/audios/abc123.mp3" {
		t.Errorf("Upload() uri = %q", uri)
	}
	if fake.putCalls != 1 {
		t.Fatalf("putCalls = %d, want 1", fake.putCalls)
	}

	uri2, err := uploader.Upload(context.Background(), path, "audios/abc123.mp3")
	if err != nil {
		t.Fatalf("second Upload() error = %v", err)
	}
	if uri2 != uri {
		t.Errorf("second Upload() uri = %q, want %q", uri2, uri)
	}
	if fake.putCalls != 1 {
		t.Errorf("putCalls after repeat = %d, want 1 (object must not be transferred again)", fake.putCalls)
	}
}

func TestUploadMissingLocalFile(t *testing.T) {
	fake := &fakeS3{}
	uploader := NewUploader(fake, "test-bucket", testLogger())

	_, err := uploader.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"), "audios/missing.mp3")
	if err == nil {
		t.Fatal("expected error for missing local file")
	}
	if apperrors.KindOf(err) != apperrors.KindStorage {
		t.Errorf("kind = %v, want %v", apperrors.KindOf(err), apperrors.KindStorage)
	}
	if fake.putCalls != 0 {
		t.Errorf("putCalls = %d, want 0", fake.putCalls)
	}
}

func TestExists(t *testing.T) {
	fake := &fakeS3{objects: map[string]struct{}{"audios/present.mp3": {}}}
	uploader := NewUploader(fake, "test-bucket", testLogger())

	exists, err := uploader.Exists(context.Background(), "audios/present.mp3")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false for present object")
	}

	exists, err = uploader.Exists(context.Background(), "audios/absent.mp3")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true for absent object")
	}
}

func TestExistsRemoteError(t *testing.T) {
	fake := &fakeS3{headErr: fmt.Errorf("connection reset")}
	uploader := NewUploader(fake, "test-bucket", testLogger())

	_, err := uploader.Exists(context.Background(), "audios/any.mp3")
	if err == nil {
		t.Fatal("expected error when HeadObject fails")
	}
	if apperrors.KindOf(err) != apperrors.KindStorage {
		t.Errorf("kind = %v, want %v", apperrors.KindOf(err), apperrors.KindStorage)
	}
}
