package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/DevSkits916/campaign-autopilot/internal/automation"
)

const probeUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CandidateResult records how one selector candidate fared against the
// fetched document.
type CandidateResult struct {
	Candidate string `json:"candidate"`
	Matches   int    `json:"matches"`
	Skipped   bool   `json:"skipped,omitempty"`
}

// StepResult summarizes one workflow step's candidate chain.
type StepResult struct {
	Step       string            `json:"step"`
	Resolved   bool              `json:"resolved"`
	ResolvedBy string            `json:"resolved_by,omitempty"`
	Candidates []CandidateResult `json:"candidates"`
}

// Report is the outcome of probing one page against a selector
// profile before committing a browser session to it.
type Report struct {
	URL       string       `json:"url"`
	Platform  string       `json:"platform"`
	FetchedAt time.Time    `json:"fetched_at"`
	Steps     []StepResult `json:"steps"`
	Resolved  int          `json:"resolved_steps"`
	Total     int          `json:"total_steps"`
}

// Prober fetches a page over plain HTTP and evaluates a selector
// profile against the static markup. Client-rendered controls report
// as unresolved here even when a live session can find them.
type Prober struct {
	httpClient *http.Client
	log        *zap.Logger
	maxRetries int
}

func NewProber(timeoutMS, maxRetries int, log *zap.Logger) *Prober {
	if log == nil {
		log = zap.NewNop()
	}
	return &Prober{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		log:        log,
		maxRetries: maxRetries,
	}
}

// Check fetches url and scores every candidate of every configured
// step. Only css candidates can be evaluated against a static
// document; xpath and text candidates are reported as skipped.
func (p *Prober) Check(ctx context.Context, url, platform string, profile automation.Profile) (*Report, error) {
	var doc *goquery.Document
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", probeUserAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return nil, lastErr
	}

	report := &Report{
		URL:       url,
		Platform:  platform,
		FetchedAt: time.Now(),
	}

	for _, step := range automation.StepOrder() {
		chain := profile.Candidates(step)
		if len(chain) == 0 {
			continue
		}
		sr := StepResult{Step: step}
		for _, c := range chain {
			cr := CandidateResult{Candidate: c.String()}
			if c.Strategy == automation.ByCSS {
				cr.Matches = doc.Find(c.Value).Length()
			} else {
				cr.Skipped = true
			}
			sr.Candidates = append(sr.Candidates, cr)
			if !sr.Resolved && cr.Matches > 0 {
				sr.Resolved = true
				sr.ResolvedBy = c.String()
			}
		}
		report.Steps = append(report.Steps, sr)
		report.Total++
		if sr.Resolved {
			report.Resolved++
		}
	}

	p.log.Debug("selector probe finished",
		zap.String("url", url),
		zap.Int("resolved", report.Resolved),
		zap.Int("total", report.Total))
	return report, nil
}
