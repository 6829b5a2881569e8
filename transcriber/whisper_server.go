package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultWhisperURL = "http://127.0.0.1:8080"

// WhisperServer talks to a local whisper.cpp server's /inference endpoint.
type WhisperServer struct {
	baseURL string
	client  *http.Client
}

func NewWhisperServer(baseURL string, timeout time.Duration) *WhisperServer {
	if baseURL == "" {
		baseURL = defaultWhisperURL
	}
	return &WhisperServer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (w *WhisperServer) Name() string { return "whisper-server" }

type whisperResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

func (w *WhisperServer) Transcribe(ctx context.Context, req Request) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+req.Format)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, err
	}

	writer.WriteField("language", req.Language)
	writer.WriteField("response_format", "json")
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/inference", &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisper server request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper server response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper server error %d: %s", resp.StatusCode, string(respBody))
	}

	var wResp whisperResponse
	if err := json.Unmarshal(respBody, &wResp); err != nil {
		return nil, fmt.Errorf("whisper server response parse error: %w", err)
	}
	if wResp.Error != "" {
		return nil, fmt.Errorf("whisper server: %s", wResp.Error)
	}

	return &Result{
		Text:    CleanText(wResp.Text),
		Elapsed: time.Since(start),
	}, nil
}
