package automation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenericProfileChains(t *testing.T) {
	p := GenericProfile()
	steps := []string{StepUsername, StepPassword, StepNavigation, StepSearch, StepEditor, StepSubmit}
	for _, step := range steps {
		if len(p.Candidates(step)) == 0 {
			t.Errorf("generic profile has no candidates for %s", step)
		}
	}
	// Most specific candidate comes first.
	if got := p.Candidates(StepUsername)[0].Value; got != "input[name='email']" {
		t.Errorf("first username candidate = %q", got)
	}
	if got := p.Candidates(StepSubmit)[1].Strategy; got != ByXPath {
		t.Errorf("submit fallback strategy = %q, want xpath", got)
	}
}

func TestProfileForUnknownPlatform(t *testing.T) {
	p := ProfileFor("something-new", nil)
	if len(p.Candidates(StepEditor)) != 2 {
		t.Errorf("unknown platform should get the generic chains")
	}
}

func TestProfileForOverride(t *testing.T) {
	overrides := map[string]Profile{
		"forum": {
			StepEditor: {{Strategy: ByCSS, Value: "#post-editor"}},
		},
	}
	p := ProfileFor("forum", overrides)

	if got := p.Candidates(StepEditor); len(got) != 1 || got[0].Value != "#post-editor" {
		t.Errorf("editor chain not overridden: %v", got)
	}
	// Steps the override does not declare keep the generic chains.
	if got := p.Candidates(StepUsername); len(got) != 3 {
		t.Errorf("username chain lost: %v", got)
	}
}

func TestLoadProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	body := `forum:
  navigation:
    - strategy: text
      value: Boards
    - strategy: css
      value: "nav a.boards"
  submit:
    - strategy: css
      value: "button.publish"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	profiles, err := LoadProfiles(path)
	if err != nil {
		t.Fatalf("LoadProfiles() error: %v", err)
	}
	nav := profiles["forum"].Candidates(StepNavigation)
	if len(nav) != 2 {
		t.Fatalf("navigation candidates = %d, want 2", len(nav))
	}
	if nav[0].Strategy != ByText || nav[0].Value != "Boards" {
		t.Errorf("first navigation candidate = %+v", nav[0])
	}
}

func TestLoadProfilesMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfiles(path); err == nil {
		t.Fatal("LoadProfiles() accepted malformed yaml")
	}
}
