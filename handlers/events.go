package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/ArmandoArias/ia-videodog/errors"
	"github.com/ArmandoArias/ia-videodog/events"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

// keepAliveInterval paces SSE comment lines so proxies don't drop an
// otherwise quiet stream.
const keepAliveInterval = 30 * time.Second

type EventHandler struct {
	hub *events.Hub
	log *logrus.Logger
}

func NewEventHandler(hub *events.Hub, log *logrus.Logger) *EventHandler {
	return &EventHandler{hub: hub, log: log}
}

// Stream handles GET /api/events/:session_id: it subscribes the
// connection to the session's room and relays events as SSE until a
// terminal event arrives or the client goes away.
func (h *EventHandler) Stream(c *fiber.Ctx) error {
	const op = "EventHandler.Stream"

	sessionID := c.Params("session_id")
	if sessionID == "" {
		return apperrors.InvalidInput(op, nil, "Se requiere un session_id.")
	}

	ch, cancel := h.hub.Subscribe(sessionID)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	logger := h.log.WithField("session_id", sessionID)
	logger.Info("Client subscribed to session events")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer logger.Info("Client stream closed")

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		for {
			select {
			case event := <-ch:
				if err := writeEvent(w, event); err != nil {
					return
				}
				if event.Terminal() {
					return
				}
			case <-keepAlive.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

func writeEvent(w *bufio.Writer, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
		return err
	}
	return w.Flush()
}
