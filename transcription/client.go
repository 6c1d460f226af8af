package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/ArmandoArias/ia-videodog/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type transcribeAPI interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

type Config struct {
	// PollInterval is the pause between job status checks.
	PollInterval time.Duration

	// MaxWait caps how long Await will poll a non-terminal job before
	// giving up with a timeout failure.
	MaxWait time.Duration
}

// Client drives transcription jobs: idempotent submission plus polling
// until the job reaches a terminal state.
type Client struct {
	api  transcribeAPI
	http *http.Client
	cfg  Config
	log  *logrus.Logger
}

func NewClient(api transcribeAPI, cfg Config, log *logrus.Logger) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 30 * time.Minute
	}
	return &Client{
		api:  api,
		http: &http.Client{Timeout: 30 * time.Second},
		cfg:  cfg,
		log:  log,
	}
}

// Start submits a transcription job for the uploaded audio object unless
// a job with the same name already ran. A completed or in-flight job of
// that name makes Start a no-op, so reprocessing the same media id is
// cheap.
func (c *Client) Start(ctx context.Context, jobName, mediaURI string) error {
	const op = "TranscriptionClient.Start"

	existing, err := c.lookup(ctx, jobName)
	if err != nil {
		return apperrors.TranscriptionSubmit(op, err, "Error al verificar la transcripción existente.")
	}
	if existing != nil {
		c.log.WithFields(logrus.Fields{
			"job":    jobName,
			"status": existing.TranscriptionJobStatus,
		}).Info("Transcription job already exists, not resubmitting")
		return nil
	}

	_, err = c.api.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		Media:                &types.Media{MediaFileUri: aws.String(mediaURI)},
		MediaFormat:          types.MediaFormatMp3,
		IdentifyLanguage:     aws.Bool(true),
		LanguageOptions: []types.LanguageCode{
			types.LanguageCodeEnUs,
			types.LanguageCodeEsEs,
		},
	})
	if err != nil {
		return apperrors.TranscriptionSubmit(op, err, "Error al iniciar el trabajo de transcripción.")
	}

	c.log.WithField("job", jobName).Info("Transcription job started")
	return nil
}

// lookup returns the job when it exists. A not-found style response from
// the service folds into (nil, nil) so the caller proceeds to create it.
func (c *Client) lookup(ctx context.Context, jobName string) (*types.TranscriptionJob, error) {
	out, err := c.api.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
	})
	if err != nil {
		var badRequest *types.BadRequestException
		if errors.As(err, &badRequest) {
			return nil, nil
		}
		var notFound *types.NotFoundException
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	return out.TranscriptionJob, nil
}

// Await polls the job until it reaches a terminal state and returns the
// transcript text. Each non-terminal tick invokes heartbeat before
// sleeping for the poll interval. Polling stops with a timeout failure
// once MaxWait elapses.
func (c *Client) Await(ctx context.Context, jobName string, heartbeat func(message string)) (string, error) {
	const op = "TranscriptionClient.Await"

	deadline := time.Now().Add(c.cfg.MaxWait)

	for {
		out, err := c.api.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		})
		if err != nil {
			return "", apperrors.TranscriptionRun(op, err, "Error al obtener la transcripción.")
		}

		job := out.TranscriptionJob
		switch job.TranscriptionJobStatus {
		case types.TranscriptionJobStatusCompleted:
			if job.Transcript == nil || aws.ToString(job.Transcript.TranscriptFileUri) == "" {
				return "", apperrors.TranscriptionRun(op, nil, "La transcripción no reportó resultados.")
			}
			return c.fetchTranscript(ctx, aws.ToString(job.Transcript.TranscriptFileUri))

		case types.TranscriptionJobStatusFailed:
			reason := aws.ToString(job.FailureReason)
			return "", apperrors.TranscriptionRun(op, errors.New(reason), "La transcripción falló.")

		default:
			if heartbeat != nil {
				heartbeat("Transcribiendo... Por favor espera.")
			}
		}

		if time.Now().After(deadline) {
			return "", apperrors.TranscriptionTimeout(op, nil,
				fmt.Sprintf("La transcripción excedió el tiempo máximo de espera (%s).", c.cfg.MaxWait))
		}

		select {
		case <-ctx.Done():
			return "", apperrors.TranscriptionTimeout(op, ctx.Err(), "La transcripción fue interrumpida.")
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

// transcriptDocument is the minimal slice of the transcript artifact
// this system reads.
type transcriptDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

func (c *Client) fetchTranscript(ctx context.Context, uri string) (string, error) {
	const op = "TranscriptionClient.fetchTranscript"

	var doc transcriptDocument
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("transcript fetch returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&doc)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(2*time.Second), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", apperrors.TranscriptionRun(op, err, "Error al obtener la transcripción.")
	}

	if len(doc.Results.Transcripts) == 0 {
		return "", apperrors.TranscriptionRun(op, nil, "La transcripción no reportó resultados.")
	}
	return doc.Results.Transcripts[0].Transcript, nil
}
