package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"dictaria/audio"
	"dictaria/beep"
	"dictaria/clipboard"
	"dictaria/config"
	"dictaria/history"
	"dictaria/hotkey"
	"dictaria/lang"
	"dictaria/log"
	"dictaria/session"
	"dictaria/transcriber"
)

var version = "dev"

var (
	guiMode bool
	// sink is replaced once a frontend attaches; until then events vanish.
	sink      EventSink = nopSink{}
	guiTheme  func(name string)
	autoPaste bool

	settingsMu sync.Mutex
	settings   config.Settings
	configPath string

	resultCount atomic.Int32
)

const speechLevel = 0.02

// wantsGUI scans raw arguments: the frontend decision happens in main(),
// before run() ever calls flag.Parse.
func wantsGUI(args []string) bool {
	for _, arg := range args {
		if arg == "-gui" || arg == "--gui" {
			return true
		}
	}
	return false
}

func initCrashLog() {
	logPath, err := log.ResolveDir("")
	if err != nil {
		return
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		return
	}
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}
}

// saveSettings persists the current settings snapshot without blocking the
// caller. The write itself is atomic, so a crash can only lose it, never
// corrupt the file.
func saveSettings() {
	settingsMu.Lock()
	snapshot := settings
	path := configPath
	settingsMu.Unlock()
	go func() {
		if err := config.Save(path, &snapshot); err != nil {
			log.Warnf("saving settings: %v", err)
		}
	}()
}

// silenceWatcher feeds the silence monitor with 100ms samples of the live
// capture level while a recording is open.
type silenceWatcher struct {
	level atomic.Uint64 // float64 bits

	mu   sync.Mutex
	stop chan struct{}
}

func (w *silenceWatcher) SetLevel(level float64) {
	w.level.Store(math.Float64bits(level))
}

func (w *silenceWatcher) Level() float64 {
	return math.Float64frombits(w.level.Load())
}

func (w *silenceWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return
	}
	stop := make(chan struct{})
	w.stop = stop

	go func() {
		mon := newSilenceMonitor()
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				switch mon.Tick(w.Level() > speechLevel) {
				case SilenceWarn:
					log.Info("no_voice_warning")
					sink.SilenceWarning(true)
					beep.PlayError()
				case SilenceWarnClear:
					sink.SilenceWarning(false)
				case SilenceRepeat:
					log.Info("silence_during_warning")
					beep.PlayError()
				}
			}
		}
	}()
}

func (w *silenceWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		close(w.stop)
		w.stop = nil
	}
	w.level.Store(0)
}

// uiNotifier forwards session notifications to the active frontend and
// plays the feedback tones around transitions.
type uiNotifier struct {
	watch *silenceWatcher
}

func (n *uiNotifier) EnteredRecording(language string) {
	beep.PlayStart()
	n.watch.Start()
	sink.RecordingStart(language)
}

func (n *uiNotifier) EnteredTranscribing(language string) {
	n.watch.Stop()
	beep.PlayEnd()
	sink.Transcribing(language)
}

func (n *uiNotifier) ReturnedIdle(reason session.Reason, err error) {
	n.watch.Stop()
	if reason != session.ReasonCompleted {
		beep.PlayError()
	}
	sink.Idle(reason, err)
}

func (n *uiNotifier) Result(res session.Result) {
	sink.Result(res)
}

func (n *uiNotifier) LanguageChanged(code string) {
	settingsMu.Lock()
	settings.ActiveLanguage = code
	settingsMu.Unlock()
	saveSettings()
	sink.Language(code)
}

// tuiSink bridges EventSink onto the Bubble Tea program.
type tuiSink struct{}

func (tuiSink) RecordingStart(language string) { tuiSend(RecordingStartMsg{Language: language}) }
func (tuiSink) Transcribing(language string)   { tuiSend(TranscribingMsg{Language: language}) }
func (tuiSink) Idle(reason session.Reason, err error) {
	tuiSend(IdleMsg{Reason: reason, Err: err})
}
func (tuiSink) Result(res session.Result) {
	tuiSend(ResultMsg{
		Text:     res.Text,
		Language: res.Language,
		AudioS:   res.Audio.Seconds(),
		ElapsedS: res.Elapsed.Seconds(),
	})
}
func (tuiSink) AudioLevel(level float64) { tuiSend(AudioLevelMsg{Level: level}) }
func (tuiSink) Language(code string)     { tuiSend(LanguageMsg{Code: code}) }
func (tuiSink) StatusLine(text string)   { tuiSend(StatusMsg{Text: text}) }
func (tuiSink) SilenceWarning(on bool)   { tuiSend(SilenceMsg{Warned: on}) }

// nopSink swallows events in headless runs.
type nopSink struct{}

func (nopSink) RecordingStart(string)      {}
func (nopSink) Transcribing(string)        {}
func (nopSink) Idle(session.Reason, error) {}
func (nopSink) Result(session.Result)      {}
func (nopSink) AudioLevel(float64)         {}
func (nopSink) Language(string)            {}
func (nopSink) StatusLine(string)          {}
func (nopSink) SilenceWarning(bool)        {}

func run() {
	configFlag := flag.String("config", "", "settings file path (default: OS-specific location)")
	langFlag := flag.String("lang", "", "active language code (e.g. es, en, ja)")
	engineFlag := flag.String("engine", "", "transcription engine: whisper-server, openai or auto")
	engineURLFlag := flag.String("engine-url", "", "base URL of the whisper server")
	formatFlag := flag.String("format", "", "upload format: wav or flac")
	deviceFlag := flag.String("device", "", "use named microphone device")
	setupFlag := flag.Bool("setup", false, "select microphone device interactively")
	autoPasteFlag := flag.Bool("autopaste", true, "paste into the focused window after transcription")
	noBeepFlag := flag.Bool("nobeep", false, "disable feedback tones")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location)")
	versionFlag := flag.Bool("version", false, "print version and exit")
	historyFlag := flag.Int("history", 0, "print the N most recent transcriptions and exit")
	// Consumed by main() before run(); registered so flag.Parse accepts it.
	flag.Bool("gui", false, "run the graphical front-end (requires a gui build)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("dictaria %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	autoPaste = *autoPasteFlag
	if *noBeepFlag {
		beep.Disable()
	}
	// Synthesize the tones up front so the first toggle isn't late.
	beep.Init()

	// Settings: file, then flag overrides.
	configPath = *configFlag
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	settings = *config.Load(configPath)
	if *langFlag != "" {
		code := lang.Canonical(*langFlag)
		if code == "" {
			fmt.Fprintf(os.Stderr, "Error: unsupported language %q\n", *langFlag)
			os.Exit(1)
		}
		settings.ActiveLanguage = code
	}
	if *engineFlag != "" {
		settings.Engine.Name = *engineFlag
	}
	if *engineURLFlag != "" {
		settings.Engine.BaseURL = *engineURLFlag
	}
	if *formatFlag != "" {
		settings.Engine.Format = *formatFlag
	}
	switch settings.Engine.Format {
	case "wav", "flac":
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (use wav or flac)\n", settings.Engine.Format)
		os.Exit(1)
	}

	// History lives next to the config file.
	histStore, err := history.Open(filepath.Join(filepath.Dir(configPath), "history"))
	if err != nil {
		log.Warnf("history unavailable: %v", err)
		histStore = nil
	} else {
		defer histStore.Close()
		if err := histStore.Prune(500); err != nil {
			log.Warnf("history prune: %v", err)
		}
	}

	if *historyFlag > 0 {
		if histStore == nil {
			fmt.Fprintln(os.Stderr, "Error: history store unavailable")
			os.Exit(1)
		}
		entries, err := histStore.Recent(*historyFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
			os.Exit(1)
		}
		total, _ := histStore.Count()
		for _, e := range entries {
			fmt.Printf("%s  [%s/%s, %.1fs]  %s\n",
				e.CreatedAt.Format("2006-01-02 15:04"), e.Language, e.Engine, e.AudioSeconds, e.Text)
		}
		fmt.Printf("%d shown, %d stored\n", len(entries), total)
		return
	}

	engine, err := transcriber.New(settings.Engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var audioCtx audio.Context
	audioCtx, err = audio.NewContext()
	if err != nil {
		log.Errorf("audio context init: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer audioCtx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := audioCtx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using system default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(audioCtx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v, using system default\n", err)
			selectedDevice = nil
		}
	}
	if selectedDevice != nil && audio.IsBluetooth(selectedDevice.Name) {
		log.Warnf("bluetooth capture device %q, expect degraded quality", selectedDevice.Name)
	}

	if autoPaste {
		if err := clipboard.Init(); err != nil {
			log.Warnf("paste init failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
		}
	}

	sig, err := hotkey.Open(hotkey.Config{
		Backend:    settings.Hotkey.Backend,
		SignalFile: settings.Hotkey.SignalFile,
	})
	if err != nil {
		// Degraded, never fatal: the UI toggle still works.
		log.Warnf("hotkey init failed: %v", err)
		sig = nil
	}
	if sig != nil {
		defer sig.Close()
	}

	watch := &silenceWatcher{}
	rec := audio.NewRecorder(audioCtx, selectedDevice, func(level float64) {
		watch.SetLevel(level)
		sink.AudioLevel(level)
	})

	sess := session.New(session.Config{
		Language:      settings.ActiveLanguage,
		Format:        settings.Engine.Format,
		EngineTimeout: time.Duration(settings.Engine.TimeoutSeconds) * time.Second,
		OnText: func(res session.Result) {
			resultCount.Add(1)
			if err := clipboard.Copy(res.Text); err != nil {
				log.Warnf("clipboard copy: %v", err)
			} else if autoPaste {
				if err := clipboard.Paste(); err != nil {
					log.Warnf("paste: %v", err)
				}
			}
			if histStore != nil {
				if _, err := histStore.Append(history.Entry{
					Text:         res.Text,
					Language:     res.Language,
					Engine:       engine.Name(),
					AudioSeconds: res.Audio.Seconds(),
				}); err != nil {
					log.Warnf("history append: %v", err)
				}
			}
		},
	}, rec, engine, &uiNotifier{watch: watch})

	disp := session.NewDispatcher(sess, sig)

	uiToggle = func() { disp.Toggle(session.SourceUI) }
	uiSelectLanguage = func(code string) {
		if !lang.Valid(code) {
			return
		}
		disp.SetLanguage(code)
	}
	uiToggleFavorite = func(code string) {
		settingsMu.Lock()
		var err error
		if settings.IsFavorite(code) {
			settings.RemoveFavorite(code)
		} else {
			err = settings.AddFavorite(code)
		}
		favs := append([]string(nil), settings.Favorites...)
		settingsMu.Unlock()
		if err != nil {
			log.Warnf("favorite %s: %v", code, err)
			sink.StatusLine(err.Error())
			return
		}
		saveSettings()
		tuiSend(FavoritesMsg{Codes: favs})
	}
	uiSaveView = func(theme string, pinned, collapsed bool) {
		settingsMu.Lock()
		settings.Theme = theme
		settings.Pinned = pinned
		settings.Collapsed = collapsed
		settingsMu.Unlock()
		saveSettings()
	}

	dispCtx, cancelDisp := context.WithCancel(context.Background())
	defer cancelDisp()
	go disp.Run(dispCtx)

	log.SessionStart(engine.Name(), settings.ActiveLanguage)

	if guiMode {
		if guiTheme != nil {
			guiTheme(settings.Theme)
		}
		// The Fyne app owns the foreground; dispatch runs until it quits.
		<-disp.Done()
		return
	}

	tuiMu.Lock()
	tuiProgram = NewTUIProgram(settings.ActiveLanguage, settings.Favorites,
		settings.Theme, settings.Pinned, settings.Collapsed)
	tuiMu.Unlock()

	sink = tuiSink{}
	if engine.Name() == "whisper-server" {
		sink.StatusLine("engine: local whisper server")
	} else {
		sink.StatusLine("engine: " + engine.Name())
	}
	if selectedDevice != nil {
		sink.StatusLine("mic: " + selectedDevice.Name)
	}

	if _, err := tuiProgram.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
	}

	// Shutdown: stop dispatch (draining any in-flight transcription), then
	// tear down capture and flush settings.
	cancelDisp()
	select {
	case <-disp.Done():
	case <-time.After(10 * time.Second):
		log.Warn("dispatcher did not drain in time")
	}
	rec.Stop()

	final := snapshotSettings()
	if err := config.Save(configPath, &final); err != nil {
		log.Warnf("final settings save: %v", err)
	}
	if n := int(resultCount.Load()); n > 0 {
		log.SessionEnd(n)
	}
	log.Close()
}

func snapshotSettings() config.Settings {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	return settings
}
