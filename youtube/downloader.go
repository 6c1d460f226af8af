package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/ArmandoArias/ia-videodog/errors"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrOutputMissing marks the case where yt-dlp reported success but the
// expected audio file was not produced.
var ErrOutputMissing = errors.New("audio output missing")

// CommandRunner executes an external command and returns its stdout and
// stderr. The seam exists so tests can substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

type Config struct {
	// WorkDir is where downloaded audio files are written, one mp3 per
	// media id.
	WorkDir string

	// DownloadsPerMinute throttles outbound yt-dlp invocations.
	DownloadsPerMinute int
}

// Downloader acquires the audio track of a video with yt-dlp, transcoded
// to mp3 at a fixed bitrate.
type Downloader struct {
	runner  CommandRunner
	workDir string
	limiter *rate.Limiter
	log     *logrus.Logger
}

// Option customizes Downloader creation.
type Option func(*Downloader)

// WithRunner substitutes the command runner, used by tests.
func WithRunner(r CommandRunner) Option {
	return func(d *Downloader) {
		d.runner = r
	}
}

func NewDownloader(cfg Config, log *logrus.Logger, opts ...Option) (*Downloader, error) {
	if err := os.MkdirAll(cfg.WorkDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create work directory")
	}

	perMinute := cfg.DownloadsPerMinute
	if perMinute <= 0 {
		perMinute = 6
	}

	d := &Downloader{
		runner:  execRunner{},
		workDir: cfg.WorkDir,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		log:     log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// mediaInfo is the slice of the yt-dlp info document this system reads.
type mediaInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Fetch downloads the best available audio for the canonical URL and
// returns the local mp3 path, the provider media id and the video title.
func (d *Downloader) Fetch(ctx context.Context, canonicalURL string) (string, string, string, error) {
	const op = "Downloader.Fetch"

	if err := d.limiter.Wait(ctx); err != nil {
		return "", "", "", apperrors.Acquisition(op, err, "Error al descargar el audio.")
	}

	args := buildArgs(canonicalURL, d.workDir)
	stdout, stderr, err := d.runner.Run(ctx, "yt-dlp", args...)
	if err != nil {
		d.log.WithFields(logrus.Fields{
			"url":    canonicalURL,
			"stderr": strings.TrimSpace(string(stderr)),
		}).WithError(err).Error("yt-dlp download failed")
		return "", "", "", apperrors.Acquisition(op, err, "Error al descargar el audio.")
	}

	var info mediaInfo
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &info); err != nil {
		d.log.WithField("url", canonicalURL).WithError(err).Error("failed to parse yt-dlp output")
		return "", "", "", apperrors.Acquisition(op, err, "Error inesperado al descargar el audio.")
	}
	if info.ID == "" {
		return "", "", "", apperrors.Acquisition(op, nil, "Error inesperado al descargar el audio.")
	}
	if info.Title == "" {
		info.Title = "Título Desconocido"
	}

	audioPath := filepath.Join(d.workDir, info.ID+".mp3")
	if _, err := os.Stat(audioPath); err != nil {
		return "", "", "", apperrors.Acquisition(op, ErrOutputMissing,
			"El archivo de audio no fue creado correctamente.")
	}

	d.log.WithFields(logrus.Fields{
		"url":   canonicalURL,
		"path":  audioPath,
		"id":    info.ID,
		"title": info.Title,
	}).Info("Audio downloaded")

	return audioPath, info.ID, info.Title, nil
}

func buildArgs(url, workDir string) []string {
	return []string{
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--output", filepath.Join(workDir, "%(id)s.%(ext)s"),
		"--no-warnings",
		"--no-progress",
		"--quiet",
		"--print-json",
		url,
	}
}
