package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAI transcribes through the hosted audio transcription API.
type OpenAI struct {
	client openai.Client
	model  string
}

func NewOpenAI(apiKey, model string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	return &OpenAI{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(timeout),
		),
		model: model,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Transcribe(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	resp, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(bytes.NewReader(req.Audio), "audio."+req.Format, req.ContentType),
		Model:    openai.AudioModel(o.model),
		Language: openai.String(req.Language),
	})
	if err != nil {
		return nil, fmt.Errorf("openai transcription: %w", err)
	}

	return &Result{
		Text:    CleanText(resp.Text),
		Elapsed: time.Since(start),
	}, nil
}
