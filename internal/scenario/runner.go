// internal/scenario/runner.go
package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/session"
	"github.com/xkilldash9x/synthinput/internal/config"
	"github.com/xkilldash9x/synthinput/internal/trace"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Index  int    `json:"index"`
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
	// Code is the W3C name of the engine error, if the step failed with one.
	Code string `json:"code,omitempty"`
}

// Result is the outcome of one scenario run.
type Result struct {
	RunID       string           `json:"run_id"`
	Scenario    string           `json:"scenario"`
	Session     string           `json:"session,omitempty"`
	Platform    string           `json:"platform"`
	URL         string           `json:"url"`
	FinalURL    string           `json:"final_url,omitempty"`
	Passed      bool             `json:"passed"`
	Error       string           `json:"error,omitempty"`
	Started     time.Time        `json:"started"`
	Duration    time.Duration    `json:"duration_ns"`
	Steps       []StepResult     `json:"steps"`
	Navigations []dom.Navigation `json:"navigations,omitempty"`
	Submissions []dom.Submission `json:"submissions,omitempty"`
	Trace       []trace.Entry    `json:"trace,omitempty"`
}

// Runner executes scenarios concurrently, each in its own session.
type Runner struct {
	cfg    config.Interface
	logger *zap.Logger
}

func NewRunner(cfg config.Interface, logger *zap.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, logger: logger.Named("runner")}, nil
}

// ErrScenarioFailed is returned by Run in fail-fast mode.
var ErrScenarioFailed = errors.New("scenario failed")

// Run executes the scenarios with at most runner.concurrency at a time and
// returns their results in input order. Scenarios never started, because
// the context ended or an earlier scenario failed in fail-fast mode, have no
// RunID.
func (r *Runner) Run(ctx context.Context, scenarios []*Scenario) ([]Result, error) {
	rc := r.cfg.Runner()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(rc.Concurrency, 1))

	results := make([]Result, len(scenarios))
	for i, sc := range scenarios {
		results[i] = Result{Scenario: sc.Name}
	}
	for i, sc := range scenarios {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res := r.RunOne(gctx, sc)
			results[i] = res
			if err := r.write(res); err != nil {
				return err
			}
			if !res.Passed && rc.FailFast {
				return fmt.Errorf("%w: %s: %s", ErrScenarioFailed, sc.Name, res.Error)
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

// RunOne executes a single scenario. Failures are reported in the result;
// the context is checked between steps.
func (r *Runner) RunOne(ctx context.Context, sc *Scenario) (res Result) {
	res = Result{RunID: uuid.New().String(), Scenario: sc.Name, URL: sc.URL, Started: time.Now(), Steps: []StepResult{}}
	log := r.logger.With(zap.String("scenario", sc.Name), zap.String("run_id", res.RunID))
	defer func() { res.Duration = time.Since(res.Started) }()

	cfg := r.scenarioConfig(sc)
	sess, err := session.New(cfg, session.WithLogger(log))
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer sess.Close()
	res.Session, res.Platform = sess.ID(), sess.Capabilities().Name

	src, err := sc.Source()
	if err == nil {
		_, err = sess.LoadHTML(sc.URL, src)
	}
	if err != nil {
		res.Error = err.Error()
		return r.finish(res, sess, log)
	}

	exec := &executor{sess: sess, gestures: cfg.Gestures(), explorer: newExplorer(log)}
	res.Passed = true
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			res.Passed, res.Error = false, err.Error()
			break
		}
		sr := StepResult{Index: i + 1, Action: st.Action, Target: st.Target}
		err := exec.run(st)
		switch {
		case st.ExpectError != "" && err == nil:
			err = fmt.Errorf("expected error %q, step succeeded", st.ExpectError)
		case st.ExpectError != "" && matchesExpected(err, st.ExpectError):
			sr.Code = codeName(err)
			err = nil
		}
		if err != nil {
			sr.Error, sr.Code = err.Error(), codeName(err)
			res.Passed = false
			res.Error = fmt.Sprintf("step %d (%s): %v", sr.Index, st.Action, err)
			res.Steps = append(res.Steps, sr)
			log.Warn("Step failed", zap.Int("step", sr.Index), zap.String("action", string(st.Action)), zap.Error(err))
			break
		}
		sr.Passed = true
		res.Steps = append(res.Steps, sr)
	}
	return r.finish(res, sess, log)
}

func (r *Runner) finish(res Result, sess *session.Session, log *zap.Logger) Result {
	res.FinalURL = sess.URL()
	res.Navigations = sess.Window().Navigations()
	res.Submissions = sess.Submissions()
	if rec := sess.Recorder(); rec != nil {
		res.Trace = rec.Entries()
	}
	log.Info("Scenario finished", zap.Bool("passed", res.Passed), zap.Int("steps", len(res.Steps)))
	return res
}

// scenarioConfig applies the scenario's platform override to a copy of the
// runner configuration.
func (r *Runner) scenarioConfig(sc *Scenario) config.Interface {
	cfg := &config.Config{
		LoggerCfg:   r.cfg.Logger(),
		EngineCfg:   r.cfg.Engine(),
		GesturesCfg: r.cfg.Gestures(),
		TraceCfg:    r.cfg.Trace(),
		RunnerCfg:   r.cfg.Runner(),
	}
	if sc.Platform != "" {
		cfg.SetEnginePlatform(sc.Platform)
	}
	return cfg
}

func codeName(err error) string {
	var be *bot.Error
	if !errors.As(err, &be) {
		return ""
	}
	return be.Code.W3C()
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// write stores res as <output_dir>/<scenario>-<run id>.json. An empty
// output directory disables it.
func (r *Runner) write(res Result) error {
	dir := r.cfg.Runner().OutputDir
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", unsafeName.ReplaceAllString(res.Scenario, "_"), res.RunID))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		f.Close()
		return fmt.Errorf("failed to write result %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close result %s: %w", path, err)
	}
	r.logger.Debug("Result written", zap.String("path", path))
	return nil
}
