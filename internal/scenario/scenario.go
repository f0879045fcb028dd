// internal/scenario/scenario.go
//
// Package scenario loads scripted input sessions from YAML or JSON files and
// runs them against the synthetic input engine.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/synthinput/internal/bot/keys"
	"github.com/xkilldash9x/synthinput/internal/bot/oracle"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

// Action names the gesture a step performs.
type Action string

const (
	ActionMove        Action = "move"
	ActionClick       Action = "click"
	ActionDoubleClick Action = "double_click"
	ActionRightClick  Action = "right_click"
	ActionScroll      Action = "scroll"
	ActionDrag        Action = "drag"
	ActionType        Action = "type"
	ActionClear       Action = "clear"
	ActionFocus       Action = "focus"
	ActionSubmit      Action = "submit"
	ActionTap         Action = "tap"
	ActionSwipe       Action = "swipe"
	ActionPinch       Action = "pinch"
	ActionRotate      Action = "rotate"
	ActionExplore     Action = "explore"
	ActionAssert      Action = "assert"
)

var actions = map[Action]bool{
	ActionMove: true, ActionClick: true, ActionDoubleClick: true, ActionRightClick: true,
	ActionScroll: true, ActionDrag: true, ActionType: true, ActionClear: true,
	ActionFocus: true, ActionSubmit: true, ActionTap: true, ActionSwipe: true,
	ActionPinch: true, ActionRotate: true, ActionExplore: true, ActionAssert: true,
}

// Point is an offset from the target's top-left corner.
type Point struct {
	X float64 `mapstructure:"x" json:"x"`
	Y float64 `mapstructure:"y" json:"y"`
}

// Expect holds the checks of an assert step. Unset fields are not checked.
type Expect struct {
	Value   *string `mapstructure:"value" json:"value,omitempty"`
	Text    *string `mapstructure:"text" json:"text,omitempty"`
	Shown   *bool   `mapstructure:"shown" json:"shown,omitempty"`
	Focused *bool   `mapstructure:"focused" json:"focused,omitempty"`
	URL     string  `mapstructure:"url" json:"url,omitempty"`
	// Submissions is the number of forms submitted so far.
	Submissions *int `mapstructure:"submissions" json:"submissions,omitempty"`
}

// Step is one scripted gesture. Target is an XPath expression; only the
// fields relevant to Action are read.
type Step struct {
	Action Action `mapstructure:"action" json:"action"`
	Target string `mapstructure:"target" json:"target,omitempty"`
	Point  *Point `mapstructure:"point" json:"point,omitempty"`

	Text    string   `mapstructure:"text" json:"text,omitempty"`
	Keys    []string `mapstructure:"keys" json:"keys,omitempty"`
	Persist bool     `mapstructure:"persist" json:"persist,omitempty"`

	Force    bool    `mapstructure:"force" json:"force,omitempty"`
	Ticks    int     `mapstructure:"ticks" json:"ticks,omitempty"`
	DX       float64 `mapstructure:"dx" json:"dx,omitempty"`
	DY       float64 `mapstructure:"dy" json:"dy,omitempty"`
	Steps    int     `mapstructure:"steps" json:"steps,omitempty"`
	Distance float64 `mapstructure:"distance" json:"distance,omitempty"`
	Angle    float64 `mapstructure:"angle" json:"angle,omitempty"`
	// Limit caps the number of elements an explore step interacts with.
	Limit int `mapstructure:"limit" json:"limit,omitempty"`

	Expect Expect `mapstructure:"expect" json:"expect,omitempty"`
	// ExpectError makes the step pass only when it fails with this error
	// code, named as in the W3C protocol ("no such element").
	ExpectError string `mapstructure:"expect_error" json:"expect_error,omitempty"`
}

// Scenario is a page and the steps to run on it.
type Scenario struct {
	Name string `mapstructure:"name" json:"name"`
	// Platform overrides engine.platform for this scenario.
	Platform string `mapstructure:"platform" json:"platform,omitempty"`
	URL      string `mapstructure:"url" json:"url"`
	// HTML is the page source; File names a page file relative to the
	// scenario file instead.
	HTML  string `mapstructure:"html" json:"html,omitempty"`
	File  string `mapstructure:"file" json:"file,omitempty"`
	Steps []Step `mapstructure:"steps" json:"steps"`

	path string
}

// Path is the file the scenario was loaded from, empty when built in code.
func (s *Scenario) Path() string { return s.path }

// Load reads a scenario file. The format follows the file extension.
func Load(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	var sc Scenario
	if err := v.Unmarshal(&sc); err != nil {
		return nil, fmt.Errorf("failed to decode scenario %s: %w", path, err)
	}
	sc.path = path
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if sc.File != "" && !filepath.IsAbs(sc.File) {
		sc.File = filepath.Join(filepath.Dir(path), sc.File)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &sc, nil
}

// LoadAll loads every path, stopping at the first failure.
func LoadAll(paths []string) ([]*Scenario, error) {
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Source returns the page HTML.
func (s *Scenario) Source() (string, error) {
	if s.File == "" {
		return s.HTML, nil
	}
	data, err := os.ReadFile(s.File)
	if err != nil {
		return "", fmt.Errorf("failed to read page %s: %w", s.File, err)
	}
	return string(data), nil
}

// Validate checks the scenario without running it.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.HTML == "" && s.File == "" {
		return errors.New("one of html or file is required")
	}
	if s.HTML != "" && s.File != "" {
		return errors.New("html and file are mutually exclusive")
	}
	if s.Platform != "" {
		if _, err := platform.Preset(s.Platform); err != nil {
			return err
		}
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	if !actions[st.Action] {
		return fmt.Errorf("unknown action %q", st.Action)
	}
	switch st.Action {
	case ActionExplore:
		if st.Limit < 0 {
			return errors.New("limit must not be negative")
		}
		return nil
	case ActionAssert:
		if st.Target == "" && st.Expect.URL == "" && st.Expect.Submissions == nil {
			return errors.New("assert needs a target or a page-level expectation")
		}
	default:
		if st.Target == "" {
			return errors.New("target is required")
		}
	}
	if st.Action == ActionType {
		if _, err := st.values(); err != nil {
			return err
		}
	}
	if st.Steps < 0 {
		return errors.New("steps must not be negative")
	}
	return nil
}

// values builds the typed sequence: the text first, then the named keys.
func (st Step) values() ([]keys.Value, error) {
	var out []keys.Value
	if st.Text != "" {
		out = append(out, keys.Text(st.Text))
	}
	for _, name := range st.Keys {
		k, ok := keys.ByName(strings.ToUpper(name))
		if !ok {
			return nil, fmt.Errorf("unknown key %q", name)
		}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, errors.New("type needs text or keys")
	}
	return out, nil
}

func (st Step) point() *oracle.Point {
	if st.Point == nil {
		return nil
	}
	return &oracle.Point{X: st.Point.X, Y: st.Point.Y}
}
