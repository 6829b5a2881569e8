package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dictaria/config"
)

func TestWhisperServerTranscribe(t *testing.T) {
	var gotLang, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotLang = r.FormValue("language")
		if fh := r.MultipartForm.File["file"]; len(fh) > 0 {
			gotFile = fh[0].Filename
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "  hola mundo \n"})
	}))
	defer srv.Close()

	engine := NewWhisperServer(srv.URL, 5*time.Second)
	result, err := engine.Transcribe(context.Background(), Request{
		Audio:       []byte("RIFFfake"),
		Format:      "wav",
		ContentType: "audio/wav",
		Language:    "es",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "hola mundo" {
		t.Errorf("Text = %q, want %q", result.Text, "hola mundo")
	}
	if gotLang != "es" {
		t.Errorf("language field = %q, want %q", gotLang, "es")
	}
	if gotFile != "audio.wav" {
		t.Errorf("file name = %q, want %q", gotFile, "audio.wav")
	}
}

func TestWhisperServerHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine := NewWhisperServer(srv.URL, 5*time.Second)
	if _, err := engine.Transcribe(context.Background(), Request{Language: "en", Format: "wav"}); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestWhisperServerErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "no model"})
	}))
	defer srv.Close()

	engine := NewWhisperServer(srv.URL, 5*time.Second)
	if _, err := engine.Transcribe(context.Background(), Request{Language: "en", Format: "wav"}); err == nil {
		t.Fatal("expected error for error payload")
	}
}

func TestWhisperServerContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	engine := NewWhisperServer(srv.URL, time.Minute)
	if _, err := engine.Transcribe(ctx, Request{Language: "en", Format: "wav"}); err == nil {
		t.Fatal("expected error after context cancel")
	}
}

func TestNewUnknownEngine(t *testing.T) {
	if _, err := New(config.EngineSettings{Name: "parrot"}); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}

func TestNewOpenAIWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New(config.EngineSettings{Name: "openai"}); err == nil {
		t.Fatal("expected error without OPENAI_API_KEY")
	}
}

func TestNewAutoFallsBackToWhisper(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	engine, err := New(config.EngineSettings{Name: "auto"})
	if err != nil {
		t.Fatalf("New(auto): %v", err)
	}
	if engine.Name() != "whisper-server" {
		t.Errorf("engine = %q, want whisper-server", engine.Name())
	}
}

func TestFakeEngineRecordsCalls(t *testing.T) {
	fake := NewFakeEngine("bonjour", nil)
	result, err := fake.Transcribe(context.Background(), Request{Language: "fr"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "bonjour" {
		t.Errorf("Text = %q", result.Text)
	}
	if fake.Calls() != 1 || fake.LastLanguage() != "fr" {
		t.Errorf("Calls = %d, LastLanguage = %q", fake.Calls(), fake.LastLanguage())
	}
}

func TestFakeEngineError(t *testing.T) {
	fake := NewFakeEngine("", fmt.Errorf("boom"))
	if _, err := fake.Transcribe(context.Background(), Request{Language: "en"}); err == nil {
		t.Fatal("expected error")
	}
}
