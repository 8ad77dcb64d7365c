package whisper

import (
	"context"
	"fmt"

	"interview-assist-be/pkg/stt"

	goopenai "github.com/sashabaranov/go-openai"
)

// Provider transcribes audio through the OpenAI audio transcriptions API.
type Provider struct {
	client *goopenai.Client
	model  string
}

var _ stt.Provider = &Provider{}

func NewProvider(apiKey, model string) *Provider {
	return &Provider{
		client: goopenai.NewClient(apiKey),
		model:  model,
	}
}

func (p *Provider) Transcribe(ctx context.Context, req stt.TranscribeRequest) (stt.Transcription, error) {
	audioReq := goopenai.AudioRequest{
		Model:    p.model,
		Reader:   req.Audio,
		FilePath: req.Filename,
		Language: req.LanguageHint,
		// Temperature 0 keeps repeated runs over the same segment stable.
		Temperature: 0,
		Format:      goopenai.AudioResponseFormatVerboseJSON,
	}

	resp, err := p.client.CreateTranscription(ctx, audioReq)
	if err != nil {
		return stt.Transcription{}, fmt.Errorf("whisper transcription: %w", err)
	}

	out := stt.Transcription{
		Text:            resp.Text,
		DurationSeconds: resp.Duration,
		Language:        resp.Language,
	}
	for _, seg := range resp.Segments {
		out.Segments = append(out.Segments, stt.Segment{
			StartSec: seg.Start,
			EndSec:   seg.End,
			Text:     seg.Text,
		})
	}
	return out, nil
}

// HealthCheck lists models, which verifies the API key without sending
// audio.
func (p *Provider) HealthCheck(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}
