package dto

// CreateSessionResponse returns the ID the client uses for the websocket
// stream and all follow-up calls.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type SelectTemplateRequest struct {
	TemplateID string `json:"template_id" validate:"required"`
}

type NegotiateFormatRequest struct {
	SupportedMimeTypes []string `json:"supported_mime_types" validate:"required"`
}

type NegotiateFormatResponse struct {
	MimeType string `json:"mime_type"`
	Usable   bool   `json:"usable"`
}

// ClientMessage is the envelope for inbound websocket messages; Type
// selects the concrete payload.
type ClientMessage struct {
	Type string `json:"type"`
}

// AudioChunkMessage carries one recorded audio segment. Data is
// base64-encoded audio in the negotiated container format.
type AudioChunkMessage struct {
	Type      string `json:"type"`
	Sequence  int    `json:"sequence" validate:"min=0"`
	Timestamp int64  `json:"timestamp"`
	MimeType  string `json:"mime_type"`
	Data      string `json:"data" validate:"required"`
}

type TranscriptResult struct {
	Sequence int     `json:"sequence"`
	Text     string  `json:"text,omitempty"`
	Duration float64 `json:"duration_seconds,omitempty"`
	Error    string  `json:"error,omitempty"`
}
