package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/ArmandoArias/ia-videodog/errors"
	"github.com/ArmandoArias/ia-videodog/events"
	"github.com/ArmandoArias/ia-videodog/models"
	"github.com/ArmandoArias/ia-videodog/repository"
	"github.com/ArmandoArias/ia-videodog/suggestions"
	"github.com/ArmandoArias/ia-videodog/transcription"

	"github.com/sirupsen/logrus"
)

const totalSteps = 5

// Acquirer produces a local audio file for a canonical URL.
type Acquirer interface {
	Fetch(ctx context.Context, canonicalURL string) (localPath, mediaID, title string, err error)
}

// Uploader moves a local file into durable remote storage.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) (uri string, err error)
}

// Transcriber submits and awaits remote transcription jobs.
type Transcriber interface {
	Start(ctx context.Context, jobName, mediaURI string) error
	Await(ctx context.Context, jobName string, heartbeat func(message string)) (string, error)
}

// Generator produces title/summary suggestions from a transcript.
type Generator interface {
	Generate(ctx context.Context, transcript, currentTitle string) (*suggestions.Result, error)
}

// Sink receives the progress, heartbeat and terminal events of a run.
type Sink interface {
	Publish(sessionID string, event events.Event)
}

type Config struct {
	// KeyPrefix prefixes object keys in the bucket, e.g. "audios/".
	KeyPrefix string

	// JobPrefix prefixes derived transcription job names.
	JobPrefix string

	// RunTimeout bounds one whole pipeline run. Zero means no bound.
	RunTimeout time.Duration
}

// Service runs the five stage pipeline as one background task per
// submission, streaming progress to the session's subscribers. Runs for
// the same canonical URL are serialized; distinct URLs run concurrently.
type Service struct {
	repo        repository.VideoRepository
	acquirer    Acquirer
	uploader    Uploader
	transcriber Transcriber
	generator   Generator
	sink        Sink
	cfg         Config
	log         *logrus.Logger

	mu      sync.Mutex
	byURL   map[string]*urlLock
	pending sync.WaitGroup
}

type urlLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(
	repo repository.VideoRepository,
	acquirer Acquirer,
	uploader Uploader,
	transcriber Transcriber,
	generator Generator,
	sink Sink,
	cfg Config,
	log *logrus.Logger,
) *Service {
	if cfg.JobPrefix == "" {
		cfg.JobPrefix = "transcripcion-"
	}
	return &Service{
		repo:        repo,
		acquirer:    acquirer,
		uploader:    uploader,
		transcriber: transcriber,
		generator:   generator,
		sink:        sink,
		cfg:         cfg,
		log:         log,
		byURL:       make(map[string]*urlLock),
	}
}

// Submit schedules one background run for the canonical URL. The caller
// returns immediately; the run reports through the session's event
// channel and cannot be cancelled by the client.
func (s *Service) Submit(canonicalURL, sessionID string) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.run(canonicalURL, sessionID)
	}()
}

// Wait blocks until every scheduled run has finished. Used on shutdown
// and by tests.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) run(canonicalURL, sessionID string) {
	logger := s.log.WithFields(logrus.Fields{
		"url":        canonicalURL,
		"session_id": sessionID,
	})

	unlock := s.lockURL(canonicalURL)
	defer unlock()

	ctx := context.Background()
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	step := 0
	progress := func(message string) {
		step++
		logger.WithFields(logrus.Fields{"step": step, "total_steps": totalSteps}).Info(message)
		s.sink.Publish(sessionID, events.Event{
			Type:       events.TypeProgress,
			Message:    message,
			Step:       step,
			TotalSteps: totalSteps,
		})
	}
	fail := func(err error) {
		logger.WithError(err).Error("Pipeline run failed")
		s.sink.Publish(sessionID, events.Event{
			Type:    events.TypeError,
			Message: userMessage(err),
		})
	}

	progress("Paso 1/5: Descargando audio...")
	audioPath, mediaID, title, err := s.acquirer.Fetch(ctx, canonicalURL)
	if err != nil {
		fail(err)
		return
	}

	progress("Paso 2/5: Subiendo audio a S3...")
	key := s.cfg.KeyPrefix + filepath.Base(audioPath)
	audioURI, err := s.uploader.Upload(ctx, audioPath, key)
	if err != nil {
		fail(err)
		return
	}

	progress("Paso 3/5: Iniciando transcripción...")
	jobName := s.cfg.JobPrefix + mediaID
	if err := s.transcriber.Start(ctx, jobName, audioURI); err != nil {
		fail(err)
		return
	}

	progress("Paso 4/5: Obteniendo transcripción...")
	transcript, err := s.transcriber.Await(ctx, jobName, func(message string) {
		s.sink.Publish(sessionID, events.Event{
			Type:    events.TypeHeartbeat,
			Message: message,
		})
	})
	if err != nil {
		fail(err)
		return
	}
	cleanTranscript := transcription.CleanText(transcript)

	progress("Paso 5/5: Generando sugerencias...")
	result, err := s.generator.Generate(ctx, cleanTranscript, title)
	if err != nil {
		fail(err)
		return
	}
	generated := result.Suggestions()

	video := &models.Video{
		URL:           canonicalURL,
		TitleOption1:  generated.TitleOption1,
		TitleOption2:  generated.TitleOption2,
		TitleOption3:  generated.TitleOption3,
		Summary:       generated.Summary,
		Transcription: cleanTranscript,
	}
	if err := s.repo.Upsert(ctx, video); err != nil {
		fail(err)
		return
	}

	logger.Info("Pipeline run completed")
	s.sink.Publish(sessionID, events.Event{
		Type:        events.TypeResult,
		Suggestions: &generated,
	})
}

// lockURL serializes runs per canonical URL so a resubmission waits for
// the in-flight run instead of racing it to the final upsert.
func (s *Service) lockURL(url string) func() {
	s.mu.Lock()
	lock, ok := s.byURL[url]
	if !ok {
		lock = &urlLock{}
		s.byURL[url] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.byURL, url)
		}
		s.mu.Unlock()
	}
}

func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
