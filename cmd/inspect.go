// cmd/inspect.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/antchfx/htmlquery"
	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/oracle"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/session"
	"github.com/xkilldash9x/synthinput/internal/config"
	"github.com/xkilldash9x/synthinput/internal/observability"
)

// Verdict is what the oracles report for one element.
type Verdict struct {
	XPath            string  `json:"xpath"`
	Tag              string  `json:"tag"`
	Shown            bool    `json:"shown"`
	Interactable     bool    `json:"interactable"`
	Enabled          bool    `json:"enabled"`
	Editable         bool    `json:"editable"`
	ContentEditable  bool    `json:"content_editable"`
	Selected         *bool   `json:"selected,omitempty"`
	Opacity          float64 `json:"opacity"`
	Overflow         string  `json:"overflow"`
	ScrolledIntoView bool    `json:"scrolled_into_view"`
	ClientRect       Rect    `json:"client_rect"`
	Width            float64 `json:"interactable_width"`
	Height           float64 `json:"interactable_height"`
}

// Rect is a client rectangle in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func newInspectCmd() *cobra.Command {
	var htmlPath, xpath, pageURL string

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the visibility and interactability verdicts for elements of a page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runInspect(observability.GetLogger(), cfg, htmlPath, pageURL, xpath, cmd.OutOrStdout())
		},
	}

	inspectCmd.Flags().StringVar(&htmlPath, "html", "", "HTML file to load (required)")
	_ = inspectCmd.MarkFlagRequired("html")
	inspectCmd.Flags().StringVar(&xpath, "xpath", "", "XPath selecting the elements to inspect (required)")
	_ = inspectCmd.MarkFlagRequired("xpath")
	inspectCmd.Flags().StringVar(&pageURL, "url", "", "document URL (default is the file URL)")
	inspectCmd.Flags().StringP("platform", "p", "", "browser engine to emulate (overrides engine.platform)")

	return inspectCmd
}

// runInspect loads the page into a session and prints one verdict per
// element matched in any document of the window.
func runInspect(logger *zap.Logger, cfg config.Interface, htmlPath, pageURL, xpath string, out io.Writer) error {
	src, err := os.ReadFile(htmlPath)
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}
	if pageURL == "" {
		abs, err := filepath.Abs(htmlPath)
		if err != nil {
			return fmt.Errorf("failed to resolve page path: %w", err)
		}
		pageURL = "file://" + filepath.ToSlash(abs)
	}

	sess, err := session.New(cfg, session.WithLogger(logger))
	if err != nil {
		return err
	}
	defer sess.Close()
	if _, err := sess.LoadHTML(pageURL, string(src)); err != nil {
		return err
	}

	var verdicts []Verdict
	for _, doc := range sess.Window().Documents() {
		nodes, err := htmlquery.QueryAll(doc.Root, xpath)
		if err != nil {
			return bot.Wrap(bot.UnknownError, err, "invalid xpath %q", xpath)
		}
		for _, n := range nodes {
			if n.Type != html.ElementNode {
				continue
			}
			v, err := inspectElement(sess, n)
			if err != nil {
				return err
			}
			verdicts = append(verdicts, v)
		}
	}
	if len(verdicts) == 0 {
		return bot.NewError(bot.NoSuchElement, "no element matches %s", xpath)
	}
	logger.Debug("Inspected elements", zap.Int("count", len(verdicts)))

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(verdicts)
}

func inspectElement(sess *session.Session, n *html.Node) (Verdict, error) {
	win := sess.Window()
	v := Verdict{
		XPath:           dom.XPath(n),
		Tag:             strings.ToLower(n.Data),
		Enabled:         oracle.IsEnabled(n),
		Editable:        oracle.IsEditable(n),
		ContentEditable: oracle.IsContentEditable(n),
	}
	var err error
	if v.Shown, err = oracle.IsShown(win, n, false); err != nil {
		return v, err
	}
	if v.Interactable, err = oracle.IsInteractable(win, sess.Capabilities(), n); err != nil {
		return v, err
	}
	if v.Opacity, err = oracle.GetOpacity(win, n); err != nil {
		return v, err
	}
	state, err := oracle.GetOverflowState(win, n, nil)
	if err != nil {
		return v, err
	}
	v.Overflow = state.String()
	if v.ScrolledIntoView, err = oracle.IsScrolledIntoView(win, n, nil); err != nil {
		return v, err
	}
	r, err := oracle.GetClientRect(win, n)
	if err != nil {
		return v, err
	}
	v.ClientRect = Rect(r)
	if v.Width, v.Height, err = oracle.GetInteractableSize(win, n); err != nil {
		return v, err
	}
	if oracle.IsSelectable(n) {
		selected, err := oracle.IsSelected(win, n)
		if err != nil {
			return v, err
		}
		v.Selected = &selected
	}
	return v, nil
}
