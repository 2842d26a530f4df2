package automation

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"go.uber.org/zap"
)

// Stepper performs single browser actions with selector fallback and
// human-like input pacing. It holds no page state; the session passes
// its page in.
type Stepper struct {
	delays        Delays
	lookupTimeout time.Duration
	log           *zap.Logger
}

func NewStepper(delays Delays, lookupTimeout time.Duration, log *zap.Logger) *Stepper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stepper{delays: delays, lookupTimeout: lookupTimeout, log: log}
}

// Locate tries each candidate in order and returns the first element
// that is both present and visible. Failed candidates are followed by
// a randomized backoff so a still-loading page is not hammered. When
// every candidate fails the returned error carries the last underlying
// failure.
func (s *Stepper) Locate(page *rod.Page, candidates []Candidate) (*rod.Element, error) {
	if len(candidates) == 0 {
		return nil, newError(KindElementNotFound, "locate", errors.New("no selector candidates configured"))
	}
	var lastErr error
	for _, c := range candidates {
		el, err := s.find(page, c)
		if err == nil {
			visible, verr := el.Visible()
			if verr == nil && visible {
				return el, nil
			}
			if verr != nil {
				err = verr
			} else {
				err = fmt.Errorf("element %s not visible", c)
			}
		}
		lastErr = err
		s.log.Debug("selector candidate failed",
			zap.String("candidate", c.String()),
			zap.Error(err))
		time.Sleep(s.delays.Backoff())
	}
	return nil, newError(KindElementNotFound, "locate", lastErr)
}

func (s *Stepper) find(page *rod.Page, c Candidate) (*rod.Element, error) {
	p := page.Timeout(s.lookupTimeout)
	switch c.Strategy {
	case ByCSS:
		return p.Element(c.Value)
	case ByXPath:
		return p.ElementX(c.Value)
	case ByText:
		return p.ElementR("a, button", c.Value)
	default:
		return nil, fmt.Errorf("unknown selector strategy %q", c.Strategy)
	}
}

// TypeHuman emits text one rune at a time with randomized keystroke
// delays. After finishing, with 30% probability it backspaces and
// retypes the final rune, imitating a typo correction.
func (s *Stepper) TypeHuman(el *rod.Element, text string) error {
	runes := []rune(text)
	for _, r := range runes {
		if err := el.Input(string(r)); err != nil {
			return fmt.Errorf("type rune: %w", err)
		}
		time.Sleep(s.delays.Typing())
	}
	if len(runes) > 0 && rand.Float64() > 0.7 {
		if err := el.Type(input.Backspace); err != nil {
			return fmt.Errorf("correction backspace: %w", err)
		}
		time.Sleep(s.delays.Typing())
		if err := el.Input(string(runes[len(runes)-1])); err != nil {
			return fmt.Errorf("correction retype: %w", err)
		}
	}
	return nil
}

// Press sends a single key to the element.
func (s *Stepper) Press(el *rod.Element, key input.Key) error {
	return el.Type(key)
}
