package automation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Selector strategies
const (
	ByCSS   = "css"
	ByXPath = "xpath"
	ByText  = "text" // partial text of a link or button
)

// Workflow steps that resolve page elements.
const (
	StepUsername   = "username"
	StepPassword   = "password"
	StepNavigation = "navigation"
	StepSearch     = "search"
	StepEditor     = "editor"
	StepSubmit     = "submit"
)

// StepOrder lists the element-resolving steps in workflow order.
func StepOrder() []string {
	return []string{StepUsername, StepPassword, StepNavigation, StepSearch, StepEditor, StepSubmit}
}

// Candidate is one way to find a step's element. Candidates are tried
// in order, most specific first; later entries are fallbacks for
// markup this system does not control.
type Candidate struct {
	Strategy string `yaml:"strategy" json:"strategy"`
	Value    string `yaml:"value" json:"value"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s(%s)", c.Strategy, c.Value)
}

// Profile maps each workflow step to its candidate chain.
type Profile map[string][]Candidate

// Candidates returns the chain for a step, empty when unconfigured.
func (p Profile) Candidates(step string) []Candidate {
	return p[step]
}

// GenericProfile is the built-in candidate set. It targets the common
// shape of social login and group posting pages.
func GenericProfile() Profile {
	return Profile{
		StepUsername: {
			{Strategy: ByCSS, Value: "input[name='email']"},
			{Strategy: ByCSS, Value: "input[name='username']"},
			{Strategy: ByCSS, Value: "input[type='text']"},
		},
		StepPassword: {
			{Strategy: ByCSS, Value: "input[name='pass']"},
			{Strategy: ByCSS, Value: "input[name='password']"},
			{Strategy: ByCSS, Value: "input[type='password']"},
		},
		StepNavigation: {
			{Strategy: ByText, Value: "Groups"},
			{Strategy: ByCSS, Value: "a[href*='groups']"},
			{Strategy: ByCSS, Value: "button[data-testid*='group']"},
		},
		StepSearch: {
			{Strategy: ByCSS, Value: "input[placeholder*='Search']"},
			{Strategy: ByCSS, Value: "input[type='search']"},
		},
		StepEditor: {
			{Strategy: ByCSS, Value: "textarea"},
			{Strategy: ByCSS, Value: "div[role='textbox']"},
		},
		StepSubmit: {
			{Strategy: ByCSS, Value: "button[type='submit']"},
			{Strategy: ByXPath, Value: "//button[contains(., 'Post')]"},
		},
	}
}

// LoadProfiles reads per-platform selector overrides from a YAML file
// keyed platform -> step -> candidates.
func LoadProfiles(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read selector profiles: %w", err)
	}
	var profiles map[string]Profile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse selector profiles: %w", err)
	}
	return profiles, nil
}

// ProfileFor resolves the profile for a platform. An override profile
// fills in only the steps it declares; undeclared steps keep the
// generic chains. Unknown platforms get the generic profile whole.
func ProfileFor(platform string, overrides map[string]Profile) Profile {
	base := GenericProfile()
	custom, ok := overrides[platform]
	if !ok {
		return base
	}
	for step, candidates := range custom {
		if len(candidates) > 0 {
			base[step] = candidates
		}
	}
	return base
}
