package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DevSkits916/campaign-autopilot/internal/status"
)

const (
	navigationTimeout = 30 * time.Second
	maxConsoleEntries = 500
)

// Credentials for the platform login step. Both fields are required.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Notifier receives session status updates for the live stream.
type Notifier func(kind, message string)

// Fallback user agents when the configuration supplies none.
var fallbackUserAgents = []string{
	"Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/95.0 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 11; Pixel 5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0 Mobile Safari/537.36",
	"Mozilla/5.0 (iPad; CPU OS 14_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15A5341f Safari/604.1",
}

type viewport struct {
	Width  int
	Height int
}

type consoleEntry struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Options carries the session's collaborators and tuning.
type Options struct {
	Delays     Delays
	Notify     Notifier
	Log        *zap.Logger
	Limiter    *rate.Limiter // optional pacing of platform-touching steps
	Profile    Profile       // selector profile; nil means generic
	DebugDir   string
	BrowserBin string // explicit chromium binary, overrides auto-detect
}

// Session owns one browser instance and the workflow steps that run in
// it. A session belongs to exactly one worker run and is never shared.
type Session struct {
	cfg     Config
	delays  Delays
	notify  Notifier
	log     *zap.Logger
	limiter *rate.Limiter
	profile Profile
	steps   *Stepper

	debugDir   string
	browserBin string
	viewport   viewport
	userAgent  string

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	consoleMu sync.Mutex
	console   []consoleEntry

	closeMu sync.Mutex
	closed  bool
}

func NewSession(cfg Config, opts Options) *Session {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Delays == (Delays{}) {
		opts.Delays = DefaultDelays()
	}
	if opts.Profile == nil {
		opts.Profile = GenericProfile()
	}
	if opts.DebugDir == "" {
		opts.DebugDir = "debug"
	}
	if opts.BrowserBin == "" {
		opts.BrowserBin = os.Getenv("GOOGLE_CHROME_BIN")
	}
	return &Session{
		cfg:        cfg,
		delays:     opts.Delays,
		notify:     opts.Notify,
		log:        opts.Log,
		limiter:    opts.Limiter,
		profile:    opts.Profile,
		steps:      NewStepper(opts.Delays, cfg.ImplicitWait, opts.Log),
		debugDir:   opts.DebugDir,
		browserBin: opts.BrowserBin,
		// Viewport dimensions are drawn once and persist for the
		// session's lifetime.
		viewport: viewport{
			Width:  360 + rand.Intn(1561),
			Height: 640 + rand.Intn(441),
		},
	}
}

func (s *Session) emit(kind, message string) {
	if s.notify != nil {
		s.notify(kind, message)
	}
}

func (s *Session) pace() {
	if s.limiter != nil {
		_ = s.limiter.Wait(context.Background())
	}
}

func (s *Session) pickUserAgent() string {
	candidates := s.cfg.MobileUserAgents
	if len(candidates) == 0 {
		candidates = fallbackUserAgents
	}
	return candidates[rand.Intn(len(candidates))]
}

// Initialize launches the browser with the stealth launch profile and
// opens the working page. Failure here is fatal to the campaign.
func (s *Session) Initialize() error {
	s.userAgent = s.pickUserAgent()

	l := launcher.New().Headless(s.cfg.Headless).NoSandbox(true)
	if s.browserBin != "" {
		l = l.Bin(s.browserBin)
	}
	l = l.Set(flags.Flag("disable-blink-features"), "AutomationControlled").
		Set(flags.Flag("disable-gpu")).
		Set(flags.Flag("disable-dev-shm-usage")).
		Set(flags.Flag("user-agent"), s.userAgent).
		Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", s.viewport.Width, s.viewport.Height)).
		Set(flags.Flag("disable-infobars")).
		Set(flags.Flag("disable-extensions")).
		Set(flags.Flag("disable-notifications")).
		Set(flags.Flag("lang"), "en-US")

	controlURL, err := l.Launch()
	if err != nil {
		return newError(KindSessionInit, "launch browser", err)
	}
	s.launcher = l

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return newError(KindSessionInit, "connect browser", err)
	}
	s.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return newError(KindSessionInit, "open page", err)
	}
	s.page = page

	// Scrub the automation marker before any site script runs.
	if _, err := (proto.PageAddScriptToEvaluateOnNewDocument{
		Source: `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`,
	}).Call(page); err != nil {
		s.log.Warn("webdriver scrub failed", zap.Error(err))
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             s.viewport.Width,
		Height:            s.viewport.Height,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		s.log.Warn("viewport override failed", zap.Error(err))
	}

	s.startConsoleCapture(page)

	s.log.Info("browser session ready",
		zap.Bool("headless", s.cfg.Headless),
		zap.Int("viewport_width", s.viewport.Width),
		zap.Int("viewport_height", s.viewport.Height))
	s.emit(status.KindInfo, "Browser ready")
	return nil
}

func (s *Session) startConsoleCapture(page *rod.Page) {
	wait := page.EachEvent(func(ev *proto.RuntimeConsoleAPICalled) {
		entry := consoleEntry{
			Type:      string(ev.Type),
			Message:   stringifyConsoleArgs(ev.Args),
			Timestamp: time.Now().UTC(),
		}
		s.consoleMu.Lock()
		if len(s.console) >= maxConsoleEntries {
			s.console = s.console[1:]
		}
		s.console = append(s.console, entry)
		s.consoleMu.Unlock()
	})
	go wait()
}

func (s *Session) consoleSnapshot() []consoleEntry {
	s.consoleMu.Lock()
	defer s.consoleMu.Unlock()
	out := make([]consoleEntry, len(s.console))
	copy(out, s.console)
	return out
}

// SimulatePresence moves the pointer to several random points of the
// viewport with short pauses. Best-effort: failures are logged, never
// escalated.
func (s *Session) SimulatePresence() {
	if s.page == nil {
		return
	}
	s.emit(status.KindInfo, "Simulating human interaction")
	moves := 3 + rand.Intn(4)
	for i := 0; i < moves; i++ {
		point := proto.Point{
			X: float64(rand.Intn(s.viewport.Width + 1)),
			Y: float64(rand.Intn(s.viewport.Height + 1)),
		}
		if err := s.page.Mouse.MoveTo(point); err != nil {
			s.log.Debug("pointer move failed", zap.Error(err))
			break
		}
		time.Sleep(s.delays.Pause())
	}
	time.Sleep(s.delays.Jitter() / 4)
}

// Login opens the base URL and authenticates through the login form.
func (s *Session) Login(creds Credentials) error {
	if s.page == nil {
		return errors.New("browser not initialized")
	}
	s.emit(status.KindInfo, "Performing platform login")
	if creds.Username == "" || creds.Password == "" {
		return newError(KindCredentials, "login", errors.New("credentials missing username or password"))
	}

	s.pace()
	if err := s.page.Timeout(navigationTimeout).Navigate(s.cfg.BaseURL); err != nil {
		return newError(KindNavigation, "open base url", err)
	}
	if err := s.page.Timeout(navigationTimeout).WaitLoad(); err != nil {
		return newError(KindNavigation, "load base url", err)
	}

	userField, err := s.steps.Locate(s.page, s.profile.Candidates(StepUsername))
	if err != nil {
		return err
	}
	passField, err := s.steps.Locate(s.page, s.profile.Candidates(StepPassword))
	if err != nil {
		return err
	}
	if err := s.steps.TypeHuman(userField, creds.Username); err != nil {
		return fmt.Errorf("type username: %w", err)
	}
	if err := s.steps.TypeHuman(passField, creds.Password); err != nil {
		return fmt.Errorf("type password: %w", err)
	}
	if err := s.steps.Press(passField, input.Enter); err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	s.emit(status.KindInfo, "Login submitted")
	time.Sleep(s.delays.Jitter())
	return nil
}

// NavigateTo activates the groups navigation and searches for the
// target group. All failures surface as navigation errors.
func (s *Session) NavigateTo(targetGroup string) error {
	if s.page == nil {
		return errors.New("browser not initialized")
	}
	s.emit(status.KindInfo, "Navigating to posting interface")

	s.pace()
	nav, err := s.steps.Locate(s.page, s.profile.Candidates(StepNavigation))
	if err != nil {
		return newError(KindNavigation, "navigate to groups", err)
	}
	if err := nav.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return newError(KindNavigation, "navigate to groups", err)
	}
	time.Sleep(s.delays.Jitter())

	search, err := s.steps.Locate(s.page, s.profile.Candidates(StepSearch))
	if err != nil {
		return newError(KindNavigation, "find group search", err)
	}
	if err := s.steps.TypeHuman(search, targetGroup); err != nil {
		return newError(KindNavigation, "search target group", err)
	}
	time.Sleep(s.delays.Jitter())
	return nil
}

// Submit types the body into the content editor and activates the
// submit affordance. All failures surface as submission errors.
func (s *Session) Submit(title, body string) error {
	if s.page == nil {
		return errors.New("browser not initialized")
	}
	s.emit(status.KindInfo, fmt.Sprintf("Preparing content '%s'", title))

	s.pace()
	editor, err := s.steps.Locate(s.page, s.profile.Candidates(StepEditor))
	if err != nil {
		return newError(KindSubmission, "find content editor", err)
	}
	if err := s.steps.TypeHuman(editor, body); err != nil {
		return newError(KindSubmission, "fill content editor", err)
	}
	time.Sleep(s.delays.Settle())

	submit, err := s.steps.Locate(s.page, s.profile.Candidates(StepSubmit))
	if err != nil {
		return newError(KindSubmission, "find submit control", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return newError(KindSubmission, "activate submit", err)
	}
	time.Sleep(s.delays.Jitter())
	s.emit(status.KindSuccess, fmt.Sprintf("Content '%s' submitted", title))
	return nil
}

// Recover sleeps a randomized interval and refreshes the page. It
// never returns an error: recovery itself must not take the campaign
// down.
func (s *Session) Recover() {
	s.emit(status.KindWarning, "Attempting recovery")
	time.Sleep(s.delays.Jitter())
	if s.page == nil {
		return
	}
	if err := s.page.Reload(); err != nil {
		s.emit(status.KindWarning, "Browser refresh failed during recovery")
		s.log.Warn("recovery refresh failed", zap.Error(err))
	}
}

// CaptureDebugArtifacts writes a timestamped screenshot and console
// dump to the debug directory. Best-effort throughout.
func (s *Session) CaptureDebugArtifacts(reason string) {
	if s.page == nil {
		return
	}
	ts := time.Now().Unix()
	if err := os.MkdirAll(s.debugDir, 0o755); err != nil {
		s.log.Warn("debug dir unavailable", zap.Error(err))
		return
	}

	shotPath := filepath.Join(s.debugDir, fmt.Sprintf("screenshot_%d.png", ts))
	data, err := s.page.Screenshot(false, nil)
	if err == nil {
		err = os.WriteFile(shotPath, data, 0o644)
	}
	if err != nil {
		s.emit(status.KindWarning, "Failed to capture screenshot")
		s.log.Warn("screenshot capture failed", zap.Error(err))
	} else {
		s.emit(status.KindInfo, fmt.Sprintf("Saved screenshot for debugging: %s", shotPath))
	}

	logs := s.consoleSnapshot()
	if logs == nil {
		logs = []consoleEntry{}
	}
	payload, err := json.MarshalIndent(map[string]any{
		"reason": reason,
		"logs":   logs,
	}, "", "  ")
	if err != nil {
		return
	}
	logsPath := filepath.Join(s.debugDir, fmt.Sprintf("console_%d.json", ts))
	if err := os.WriteFile(logsPath, payload, 0o644); err != nil {
		s.log.Warn("console dump failed", zap.Error(err))
	}
}

// Shutdown releases the browser. Safe to call more than once; teardown
// problems are reported as warnings, never errors.
func (s *Session) Shutdown() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.emit(status.KindWarning, "Browser shutdown encountered an error")
			s.log.Warn("browser close failed", zap.Error(err))
		}
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	s.browser = nil
	s.page = nil
}

// Jitter returns one randomized inter-action delay.
func (s *Session) Jitter() time.Duration {
	return s.delays.Jitter()
}

func stringifyConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if !a.Value.Nil() {
			parts = append(parts, a.Value.String())
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}
