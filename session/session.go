// Package session owns the idle/recording/transcribing state machine. All
// transitions run on the dispatcher goroutine, so the machine itself needs
// no locking; State is mirrored atomically for readers elsewhere.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"dictaria/audio"
	"dictaria/encoder"
	"dictaria/log"
	"dictaria/transcriber"
)

type State int32

const (
	Idle State = iota
	Recording
	Transcribing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	default:
		return "unknown"
	}
}

// Reason explains why the session returned to idle.
type Reason string

const (
	ReasonCompleted          Reason = "completed"
	ReasonNoLanguageSelected Reason = "no_language_selected"
	ReasonDeviceUnavailable  Reason = "device_unavailable"
	ReasonNoAudioCaptured    Reason = "no_audio_captured"
	ReasonNoTextRecognized   Reason = "no_text_recognized"
	ReasonEngineFailure      Reason = "engine_failure"
)

// Result is one completed transcription.
type Result struct {
	Text     string
	Language string
	Audio    time.Duration // captured audio length
	Elapsed  time.Duration // engine round trip
}

// Notifier receives state-change and result notifications. Calls arrive on
// the dispatcher goroutine and must not block.
type Notifier interface {
	EnteredRecording(language string)
	EnteredTranscribing(language string)
	ReturnedIdle(reason Reason, err error)
	Result(res Result)
	LanguageChanged(language string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) EnteredRecording(string)    {}
func (NopNotifier) EnteredTranscribing(string) {}
func (NopNotifier) ReturnedIdle(Reason, error) {}
func (NopNotifier) Result(Result)              {}
func (NopNotifier) LanguageChanged(string)     {}

// Recorder is the slice of audio.Recorder the session drives.
type Recorder interface {
	Start() error
	Stop() (audio.Buffer, int)
}

var _ Recorder = (*audio.Recorder)(nil)

// Config tunes one session.
type Config struct {
	// Language is the initial active language code, possibly empty.
	Language string
	// Format is the upload encoding, "wav" or "flac".
	Format string
	// MinDuration and MinRMS gate out accidental taps: buffers shorter or
	// quieter than this skip the engine entirely.
	MinDuration time.Duration
	MinRMS      float64
	// EngineTimeout bounds one engine call; a timeout reads as engine failure.
	EngineTimeout time.Duration
	// OnText runs once per successful transcription, after notification.
	// This is where clipboard and history hang.
	OnText func(Result)
}

func (c *Config) fillDefaults() {
	if c.Format == "" {
		c.Format = "wav"
	}
	if c.MinDuration == 0 {
		c.MinDuration = 200 * time.Millisecond
	}
	if c.MinRMS == 0 {
		c.MinRMS = 0.003
	}
	if c.EngineTimeout == 0 {
		c.EngineTimeout = 60 * time.Second
	}
}

type outcome struct {
	result   *transcriber.Result
	err      error
	language string
	audio    time.Duration
}

// Session is the single source of truth for what is happening now. Exactly
// one exists per process; its methods below run only on the dispatcher
// goroutine.
type Session struct {
	cfg      Config
	rec      Recorder
	engine   transcriber.Engine
	notifier Notifier

	state       atomic.Int32
	language    string
	pendingLang string
	hasPending  bool

	// Single-slot handoff from the transcription goroutine back to the
	// dispatcher. At most one task is ever in flight.
	completions chan outcome
}

func New(cfg Config, rec Recorder, engine transcriber.Engine, notifier Notifier) *Session {
	cfg.fillDefaults()
	if notifier == nil {
		notifier = NopNotifier{}
	}
	s := &Session{
		cfg:         cfg,
		rec:         rec,
		engine:      engine,
		notifier:    notifier,
		language:    cfg.Language,
		completions: make(chan outcome, 1),
	}
	s.state.Store(int32(Idle))
	return s
}

// State is safe to call from any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Language reports the active language code as of the last transition.
func (s *Session) Language() string {
	return s.language
}

func (s *Session) setState(st State, reason Reason) {
	s.state.Store(int32(st))
	log.Transition(st.String(), string(reason))
}

// toggle advances the state machine by one user intent.
func (s *Session) toggle() {
	switch s.State() {
	case Idle:
		s.startRecording()
	case Recording:
		s.stopRecording()
	case Transcribing:
		// Only one in-flight job is permitted; drop, don't queue.
		log.Info("toggle dropped while transcribing")
	}
}

func (s *Session) startRecording() {
	if s.language == "" {
		s.notifier.ReturnedIdle(ReasonNoLanguageSelected, nil)
		return
	}
	if err := s.rec.Start(); err != nil {
		log.Errorf("recording start: %v", err)
		s.notifier.ReturnedIdle(ReasonDeviceUnavailable, err)
		return
	}
	s.setState(Recording, "")
	s.notifier.EnteredRecording(s.language)
}

func (s *Session) stopRecording() {
	buf, dropped := s.rec.Stop()
	if dropped > 0 {
		log.Warnf("capture queue dropped %d chunks", dropped)
	}

	if buf.Duration() < s.cfg.MinDuration || buf.RMS() < s.cfg.MinRMS {
		s.setState(Idle, ReasonNoAudioCaptured)
		s.notifier.ReturnedIdle(ReasonNoAudioCaptured, nil)
		s.applyPendingLanguage()
		return
	}

	// The in-flight job keeps the language it started with, even if the
	// user switches mid-transcription.
	language := s.language
	audioDur := buf.Duration()

	s.setState(Transcribing, "")
	s.notifier.EnteredTranscribing(language)

	go func() {
		s.completions <- s.run(buf, language, audioDur)
	}()
}

// run executes one transcription task off the dispatcher goroutine.
func (s *Session) run(buf audio.Buffer, language string, audioDur time.Duration) outcome {
	out := outcome{language: language, audio: audioDur}

	data, err := encoder.Encode(s.cfg.Format, buf.Samples)
	if err != nil {
		out.err = err
		return out
	}

	contentType := "audio/wav"
	if s.cfg.Format == "flac" {
		contentType = "audio/flac"
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.EngineTimeout)
	defer cancel()

	out.result, out.err = s.engine.Transcribe(ctx, transcriber.Request{
		Audio:       data,
		Format:      s.cfg.Format,
		ContentType: contentType,
		Language:    language,
	})
	return out
}

// complete folds a finished transcription task back into the machine.
func (s *Session) complete(out outcome) {
	defer s.applyPendingLanguage()

	if out.err != nil {
		log.Errorf("transcription: %v", out.err)
		s.setState(Idle, ReasonEngineFailure)
		s.notifier.ReturnedIdle(ReasonEngineFailure, out.err)
		return
	}

	text := transcriber.CleanText(out.result.Text)
	if text == "" {
		s.setState(Idle, ReasonNoTextRecognized)
		s.notifier.ReturnedIdle(ReasonNoTextRecognized, nil)
		return
	}

	res := Result{
		Text:     text,
		Language: out.language,
		Audio:    out.audio,
		Elapsed:  out.result.Elapsed,
	}
	s.setState(Idle, ReasonCompleted)
	log.Transcription(s.engine.Name(), res.Language, res.Audio.Seconds(), res.Elapsed.Seconds(), len(res.Text))
	log.TranscriptionText(res.Text)
	s.notifier.Result(res)
	s.notifier.ReturnedIdle(ReasonCompleted, nil)
	if s.cfg.OnText != nil {
		s.cfg.OnText(res)
	}
}

// setLanguage applies a language change now when idle, or defers it until
// the current cycle finishes.
func (s *Session) setLanguage(code string) {
	if s.State() != Idle {
		s.pendingLang = code
		s.hasPending = true
		return
	}
	s.language = code
	s.notifier.LanguageChanged(code)
}

func (s *Session) applyPendingLanguage() {
	if !s.hasPending {
		return
	}
	s.language = s.pendingLang
	s.hasPending = false
	s.notifier.LanguageChanged(s.language)
}
