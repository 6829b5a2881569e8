// Package transcriber sends encoded audio to a speech-to-text engine.
package transcriber

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"dictaria/config"
)

// Request carries one encoded recording to an engine.
type Request struct {
	Audio       []byte
	Format      string // file extension: "wav" or "flac"
	ContentType string
	Language    string // ISO 639-1 code, never empty
}

type Result struct {
	Text    string
	Elapsed time.Duration
}

// Engine performs one-shot transcription. Implementations honor ctx
// cancellation and deadlines.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// New builds the engine named in config. With name "auto" an OpenAI engine
// is chosen when OPENAI_API_KEY is set, otherwise the local whisper server.
func New(cfg config.EngineSettings) (Engine, error) {
	name := cfg.Name
	if name == "" || name == "auto" {
		if os.Getenv("OPENAI_API_KEY") != "" {
			name = "openai"
		} else {
			name = "whisper-server"
		}
	}

	switch name {
	case "whisper-server":
		return NewWhisperServer(cfg.BaseURL, timeout(cfg)), nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("openai engine requires OPENAI_API_KEY")
		}
		return NewOpenAI(key, cfg.Model, timeout(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Name)
	}
}

func timeout(cfg config.EngineSettings) time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

// CleanText trims whitespace the engines habitually wrap around transcripts.
func CleanText(s string) string {
	return strings.TrimSpace(s)
}
