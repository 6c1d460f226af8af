package handlers

import (
	apperrors "github.com/ArmandoArias/ia-videodog/errors"
	"github.com/ArmandoArias/ia-videodog/repository"
	"github.com/ArmandoArias/ia-videodog/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Submitter schedules one background pipeline run.
type Submitter interface {
	Submit(canonicalURL, sessionID string)
}

type VideoHandler struct {
	service   Submitter
	repo      repository.VideoRepository
	validator *validation.Validator
	log       *logrus.Logger
}

func NewVideoHandler(
	service Submitter,
	repo repository.VideoRepository,
	validator *validation.Validator,
	log *logrus.Logger,
) *VideoHandler {
	return &VideoHandler{
		service:   service,
		repo:      repo,
		validator: validator,
		log:       log,
	}
}

type submitRequest struct {
	VideoURL  string `json:"video_url"`
	SessionID string `json:"session_id"`
	Force     bool   `json:"force"`
}

// Submit handles POST /api/videos. Invalid URLs fail synchronously; a
// URL already processed returns its stored suggestions unless force is
// set; otherwise a background run is scheduled and 202 returned.
func (h *VideoHandler) Submit(c *fiber.Ctx) error {
	const op = "VideoHandler.Submit"

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.InvalidInput(op, err, "No se pudo leer la solicitud.")
	}

	canonicalURL, err := h.validator.CanonicalURL(req.VideoURL)
	if err != nil {
		return err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	logger := h.log.WithFields(logrus.Fields{
		"url":        canonicalURL,
		"session_id": sessionID,
	})

	if !req.Force {
		video, err := h.repo.FindByURL(c.Context(), canonicalURL)
		if err == nil {
			logger.Info("Returning stored suggestions without reprocessing")
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"message":     "El video ya fue procesado.",
				"session_id":  sessionID,
				"suggestions": video.Suggestions(),
			})
		}
		if !apperrors.IsNotFound(err) {
			return err
		}
	}

	h.service.Submit(canonicalURL, sessionID)
	logger.Info("Pipeline run scheduled")

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":    "Procesamiento iniciado.",
		"session_id": sessionID,
	})
}

// Get handles GET /api/videos?url= and returns the stored record.
func (h *VideoHandler) Get(c *fiber.Ctx) error {
	canonicalURL, err := h.validator.CanonicalURL(c.Query("url"))
	if err != nil {
		return err
	}

	video, err := h.repo.FindByURL(c.Context(), canonicalURL)
	if err != nil {
		return err
	}
	return c.JSON(video)
}

// HealthCheck handles GET /health.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
