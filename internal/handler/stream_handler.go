package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"interview-assist-be/internal/dto"
	"interview-assist-be/internal/pkg/logger"
	"interview-assist-be/internal/pkg/serverutils"
	internalWS "interview-assist-be/internal/websocket"
	"interview-assist-be/pkg/pipeline"
	"interview-assist-be/pkg/stt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SessionSender pushes a serialized frame to every observer of a session.
type SessionSender interface {
	SendToSession(sessionID string, data []byte)
}

// StreamHandler owns the websocket ingest surface: clients attach to a
// session, push audio_chunk messages, and receive pipeline events back on
// the same connection.
type StreamHandler struct {
	orchestrator *pipeline.Orchestrator
	hub          *internalWS.Hub
	sender       SessionSender
	logger       logger.ILogger
}

func NewStreamHandler(orchestrator *pipeline.Orchestrator, hub *internalWS.Hub, log logger.ILogger) *StreamHandler {
	return &StreamHandler{
		orchestrator: orchestrator,
		hub:          hub,
		sender:       hub,
		logger:       log,
	}
}

func (h *StreamHandler) RegisterRoutes(router fiber.Router) {
	stream := router.Group("/stream/v1")
	stream.Post("/format", h.NegotiateFormat)

	stream.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	stream.Get("/ws", h.ServeWs)
}

// NegotiateFormat picks the capture format the client should record in.
func (h *StreamHandler) NegotiateFormat(c *fiber.Ctx) error {
	var req dto.NegotiateFormatRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	mimeType := stt.NegotiateFormat(req.SupportedMimeTypes)
	return c.JSON(serverutils.SuccessResponse("Success negotiate format", dto.NegotiateFormatResponse{
		MimeType: mimeType,
		Usable:   mimeType != "",
	}))
}

// ServeWs attaches the connection to a session; the session must be given
// as a query param so observers can join without any prior HTTP call.
func (h *StreamHandler) ServeWs(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing session_id query param"})
	}

	return websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeWs(h.hub, conn, sessionID, h.inboundHandler(sessionID), h.logger)
	}, websocket.Config{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	})(c)
}

// inboundHandler dispatches data frames from one connection. Malformed
// frames are logged and dropped; the connection stays up.
func (h *StreamHandler) inboundHandler(sessionID string) func(data []byte) {
	return func(data []byte) {
		var envelope dto.ClientMessage
		if err := json.Unmarshal(data, &envelope); err != nil {
			h.logger.Warn("Stream", "Malformed inbound frame", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
			return
		}

		switch envelope.Type {
		case "audio_chunk":
			h.handleAudioChunk(sessionID, data)
		case "session_stats":
			h.handleSessionStats(sessionID)
		default:
			h.logger.Warn("Stream", "Unknown inbound message type", map[string]interface{}{
				"session_id": sessionID,
				"type":       envelope.Type,
			})
		}
	}
}

// handleSessionStats answers a stats query over the same connection the
// client streams on, framed like the pipeline events.
func (h *StreamHandler) handleSessionStats(sessionID string) {
	stats := h.orchestrator.GetSessionStats(sessionID)

	frame, err := json.Marshal(map[string]interface{}{
		"type":       "session_stats_response",
		"session_id": sessionID,
		"payload":    stats,
		"timestamp":  time.Now(),
	})
	if err != nil {
		h.logger.Error("Stream", "Failed to marshal session stats", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return
	}
	h.sender.SendToSession(sessionID, frame)
}

func (h *StreamHandler) handleAudioChunk(sessionID string, data []byte) {
	var msg dto.AudioChunkMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Warn("Stream", "Malformed audio_chunk", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return
	}
	if err := serverutils.ValidateRequest(msg); err != nil {
		h.logger.Warn("Stream", "Invalid audio_chunk", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return
	}

	audio, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		h.logger.Warn("Stream", "audio_chunk payload is not valid base64", map[string]interface{}{
			"session_id": sessionID,
			"sequence":   msg.Sequence,
			"error":      err.Error(),
		})
		return
	}

	// The ack comes back to the client as a segment-acknowledged event
	// through the hub, so the return value is only logged here.
	ack := h.orchestrator.IngestSegment(context.Background(), pipeline.IngestRequest{
		SessionID: sessionID,
		Sequence:  msg.Sequence,
		Timestamp: msg.Timestamp,
		MimeType:  msg.MimeType,
		Data:      audio,
	})
	if !ack.Stored {
		h.logger.Error("Stream", "Segment rejected", map[string]interface{}{
			"session_id": sessionID,
			"sequence":   msg.Sequence,
			"error":      ack.Error,
		})
	}
}
