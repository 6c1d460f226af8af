package transcription

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/ArmandoArias/ia-videodog/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/sirupsen/logrus"
)

type fakeTranscribe struct {
	job        *types.TranscriptionJob
	getErr     error
	startCalls int
	getCalls   int
}

func (f *fakeTranscribe) StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error) {
	f.startCalls++
	f.job = &types.TranscriptionJob{
		TranscriptionJobName:   params.TranscriptionJobName,
		TranscriptionJobStatus: types.TranscriptionJobStatusInProgress,
	}
	return &transcribe.StartTranscriptionJobOutput{TranscriptionJob: f.job}, nil
}

func (f *fakeTranscribe) GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.job == nil {
		return nil, &types.NotFoundException{}
	}
	return &transcribe.GetTranscriptionJobOutput{TranscriptionJob: f.job}, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestStartSubmitsNewJob(t *testing.T) {
	fake := &fakeTranscribe{}
	client := NewClient(fake, Config{}, testLogger())

	if err := client.Start(context.Background(), "transcripcion-abc", "s3://bucket/audios/abc.mp3"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if fake.startCalls != 1 {
		t.Errorf("startCalls = %d, want 1", fake.startCalls)
	}
}

func TestStartSkipsExistingJob(t *testing.T) {
	statuses := []types.TranscriptionJobStatus{
		types.TranscriptionJobStatusCompleted,
		types.TranscriptionJobStatusInProgress,
		types.TranscriptionJobStatusQueued,
	}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			fake := &fakeTranscribe{
				job: &types.TranscriptionJob{
					TranscriptionJobName:   aws.String("transcripcion-abc"),
					TranscriptionJobStatus: status,
				},
			}
			client := NewClient(fake, Config{}, testLogger())

			if err := client.Start(context.Background(), "transcripcion-abc", "s3://bucket/audios/abc.mp3"); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			if fake.startCalls != 0 {
				t.Errorf("startCalls = %d, want 0 (existing job must not be resubmitted)", fake.startCalls)
			}
		})
	}
}

func TestStartAfterBadRequestLookup(t *testing.T) {
	fake := &fakeTranscribe{getErr: &types.BadRequestException{}}
	client := NewClient(fake, Config{}, testLogger())

	if err := client.Start(context.Background(), "transcripcion-abc", "s3://bucket/audios/abc.mp3"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if fake.startCalls != 1 {
		t.Errorf("startCalls = %d, want 1", fake.startCalls)
	}
}

func TestAwaitCompleted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"transcripts":[{"transcript":"hola mundo"}]}}`))
	}))
	defer server.Close()

	fake := &fakeTranscribe{
		job: &types.TranscriptionJob{
			TranscriptionJobName:   aws.String("transcripcion-abc"),
			TranscriptionJobStatus: types.TranscriptionJobStatusCompleted,
			Transcript:             &types.Transcript{TranscriptFileUri: aws.String(server.URL)},
		},
	}
	client := NewClient(fake, Config{PollInterval: time.Millisecond}, testLogger())

	text, err := client.Await(context.Background(), "transcripcion-abc", nil)
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if text != "hola mundo" {
		t.Errorf("Await() = %q, want %q", text, "hola mundo")
	}
}

func TestAwaitFailedJob(t *testing.T) {
	fake := &fakeTranscribe{
		job: &types.TranscriptionJob{
			TranscriptionJobName:   aws.String("transcripcion-abc"),
			TranscriptionJobStatus: types.TranscriptionJobStatusFailed,
			FailureReason:          aws.String("unsupported media"),
		},
	}
	client := NewClient(fake, Config{PollInterval: time.Millisecond}, testLogger())

	_, err := client.Await(context.Background(), "transcripcion-abc", nil)
	if err == nil {
		t.Fatal("expected error for failed job")
	}
	if apperrors.KindOf(err) != apperrors.KindTranscriptionRun {
		t.Errorf("kind = %v, want %v", apperrors.KindOf(err), apperrors.KindTranscriptionRun)
	}
}

func TestAwaitTimesOut(t *testing.T) {
	fake := &fakeTranscribe{
		job: &types.TranscriptionJob{
			TranscriptionJobName:   aws.String("transcripcion-abc"),
			TranscriptionJobStatus: types.TranscriptionJobStatusInProgress,
		},
	}
	client := NewClient(fake, Config{
		PollInterval: time.Millisecond,
		MaxWait:      5 * time.Millisecond,
	}, testLogger())

	heartbeats := 0
	_, err := client.Await(context.Background(), "transcripcion-abc", func(string) { heartbeats++ })
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if apperrors.KindOf(err) != apperrors.KindTranscriptionTimeout {
		t.Errorf("kind = %v, want %v", apperrors.KindOf(err), apperrors.KindTranscriptionTimeout)
	}
	if heartbeats == 0 {
		t.Error("heartbeat was never invoked while polling")
	}
}

func TestAwaitCanceled(t *testing.T) {
	fake := &fakeTranscribe{
		job: &types.TranscriptionJob{
			TranscriptionJobName:   aws.String("transcripcion-abc"),
			TranscriptionJobStatus: types.TranscriptionJobStatusInProgress,
		},
	}
	client := NewClient(fake, Config{PollInterval: time.Minute, MaxWait: time.Hour}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Await(ctx, "transcripcion-abc", nil)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if apperrors.KindOf(err) != apperrors.KindTranscriptionTimeout {
		t.Errorf("kind = %v, want %v", apperrors.KindOf(err), apperrors.KindTranscriptionTimeout)
	}
}
