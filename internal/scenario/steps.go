// internal/scenario/steps.go
package scenario

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/action"
	"github.com/xkilldash9x/synthinput/internal/bot/oracle"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/session"
	"github.com/xkilldash9x/synthinput/internal/config"
)

// executor runs the steps of one scenario in one session.
type executor struct {
	sess     *session.Session
	gestures config.GesturesConfig
	explorer *explorer
}

func (x *executor) run(st Step) error {
	if st.Action == ActionExplore {
		return x.explorer.explore(x.sess, st.Limit)
	}
	if st.Action == ActionAssert {
		return x.check(st)
	}

	el, err := x.sess.Find(st.Target)
	if err != nil {
		return err
	}
	pt := st.point()
	s := x.sess

	switch st.Action {
	case ActionMove:
		return action.MoveMouse(s.Mouse(), el, pt)
	case ActionClick:
		return action.Click(s.Mouse(), el, pt, st.Force)
	case ActionDoubleClick:
		return action.DoubleClick(s.Mouse(), el, pt)
	case ActionRightClick:
		return action.RightClick(s.Mouse(), el, pt)
	case ActionScroll:
		return action.ScrollMouse(s.Mouse(), el, st.Ticks, pt)
	case ActionDrag:
		return action.Drag(s.Mouse(), el, st.DX, st.DY, or(st.Steps, x.gestures.DragSteps), pt)
	case ActionType:
		values, err := st.values()
		if err != nil {
			return bot.Wrap(bot.UnknownError, err, "building key sequence")
		}
		return action.Type(s.Keyboard(), el, values, st.Persist)
	case ActionClear:
		return action.Clear(s.Device(), el)
	case ActionFocus:
		return action.FocusOnElement(s.Device(), el)
	case ActionSubmit:
		return action.Submit(s.Device(), el)
	case ActionTap:
		return action.Tap(s.Touchscreen(), el, pt)
	case ActionSwipe:
		return action.Swipe(s.Touchscreen(), el, st.DX, st.DY, or(st.Steps, x.gestures.SwipeSteps), pt)
	case ActionPinch:
		return action.Pinch(s.Touchscreen(), el, st.Distance, or(st.Steps, x.gestures.MultiTouchSteps), pt)
	case ActionRotate:
		return action.Rotate(s.Touchscreen(), el, st.Angle, or(st.Steps, x.gestures.MultiTouchSteps), pt)
	}
	return bot.NewError(bot.UnsupportedOperation, "unknown action %q", st.Action)
}

func or(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

// AssertionError reports a failed assert step.
type AssertionError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("expected %s %q, got %q", e.Field, e.Expected, e.Actual)
}

func (x *executor) check(st Step) error {
	exp := st.Expect
	if exp.URL != "" {
		if got := x.sess.URL(); got != exp.URL {
			return &AssertionError{Field: "url", Expected: exp.URL, Actual: got}
		}
	}
	if exp.Submissions != nil {
		if got := len(x.sess.Submissions()); got != *exp.Submissions {
			return &AssertionError{Field: "submissions", Expected: fmt.Sprint(*exp.Submissions), Actual: fmt.Sprint(got)}
		}
	}
	if st.Target == "" {
		return nil
	}

	el, err := x.sess.Find(st.Target)
	if err != nil {
		return err
	}
	doc, err := x.sess.Window().Owner(el)
	if err != nil {
		return bot.Wrap(bot.NoSuchElement, err, "locating %s", st.Target)
	}
	if exp.Value != nil {
		if got := doc.Value(el); got != *exp.Value {
			return &AssertionError{Field: "value", Expected: *exp.Value, Actual: got}
		}
	}
	if exp.Text != nil {
		if got := strings.TrimSpace(dom.TextContent(el)); got != *exp.Text {
			return &AssertionError{Field: "text", Expected: *exp.Text, Actual: got}
		}
	}
	if exp.Shown != nil {
		shown, err := oracle.IsShown(x.sess.Window(), el, false)
		if err != nil {
			return err
		}
		if shown != *exp.Shown {
			return &AssertionError{Field: "shown", Expected: fmt.Sprint(*exp.Shown), Actual: fmt.Sprint(shown)}
		}
	}
	if exp.Focused != nil {
		focused := doc.ActiveElement() == el
		if focused != *exp.Focused {
			return &AssertionError{Field: "focused", Expected: fmt.Sprint(*exp.Focused), Actual: fmt.Sprint(focused)}
		}
	}
	return nil
}

// matchesExpected reports whether err carries the W3C code named by want.
// Failed assertions never match.
func matchesExpected(err error, want string) bool {
	var ae *AssertionError
	if errors.As(err, &ae) {
		return false
	}
	code, ok := bot.CodeOf(err)
	if !ok {
		return false
	}
	want = strings.TrimSpace(want)
	return strings.EqualFold(want, code.W3C()) || strings.EqualFold(want, code.String())
}

func describe(el *html.Node) string {
	if el == nil {
		return ""
	}
	return dom.XPath(el)
}
