package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/DevSkits916/campaign-autopilot/internal/campaign"
)

func TestRenderIncludesBothCharts(t *testing.T) {
	tally := campaign.Tally{
		RunID:     uuid.New(),
		State:     campaign.StateCompleted,
		Submitted: map[string]int{"alpha": 2, "beta": 1},
		Errors:    1,
		Consumed:  3,
		Total:     3,
	}

	var buf bytes.Buffer
	if err := Render(&buf, tally); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Submissions by Target Group",
		"Run Outcomes",
		"alpha",
		"beta",
		"remaining",
		tally.RunID.String(),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q", want)
		}
	}
}

func TestRenderEmptyTally(t *testing.T) {
	tally := campaign.Tally{
		RunID: uuid.New(),
		State: campaign.StateFailed,
	}

	var buf bytes.Buffer
	if err := Render(&buf, tally); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("report output empty")
	}
}
