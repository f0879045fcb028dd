// internal/bot/action/touch.go
package action

import (
	"math"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/device"
	"github.com/xkilldash9x/synthinput/internal/bot/oracle"
)

// RotateRadius is the distance of each finger from the centre of a
// rotation.
const RotateRadius = 20.0

// Tap touches el at pt, the centre when nil, and lifts the finger.
func Tap(ts *device.Touchscreen, el *html.Node, pt *oracle.Point) error {
	p, err := prepare(ts.Window(), el, pt)
	if err != nil {
		return err
	}
	if err := ts.Move(el, p.X, p.Y, 0, 0); err != nil {
		return err
	}
	if err := ts.Press(false); err != nil {
		return err
	}
	return ts.Release()
}

// Swipe drags one finger from pt across el by dx, dy in steps moves,
// correcting each move for el having moved since the press.
func Swipe(ts *device.Touchscreen, el *html.Node, dx, dy float64, steps int, pt *oracle.Point) error {
	if steps < 1 {
		return bot.NewError(bot.UnknownError, "there must be at least one step as part of a swipe")
	}
	win := ts.Window()
	start, err := prepare(win, el, pt)
	if err != nil {
		return err
	}
	initial, err := oracle.GetClientRect(win, el)
	if err != nil {
		return err
	}
	if err := ts.Move(el, start.X, start.Y, 0, 0); err != nil {
		return err
	}
	if err := ts.Press(false); err != nil {
		return err
	}
	for i := 1; i <= steps; i++ {
		current, err := oracle.GetClientRect(win, el)
		if err != nil {
			return err
		}
		x := stepOffset(dx, i, steps) + start.X + initial.X - current.X
		y := stepOffset(dy, i, steps) + start.Y + initial.Y - current.Y
		if err := ts.Move(el, x, y, 0, 0); err != nil {
			return err
		}
	}
	return ts.Release()
}

// Pinch moves two fingers along the horizontal axis through the centre of
// el. A positive distance pinches in from distance/2 either side of the
// centre to the centre; a negative one spreads out from the centre to
// |distance|/2.
func Pinch(ts *device.Touchscreen, el *html.Node, distance float64, steps int, pt *oracle.Point) error {
	if distance == 0 {
		return bot.NewError(bot.UnknownError, "cannot pinch by a distance of zero")
	}
	half := math.Abs(distance) / 2
	offset := func(t float64) (float64, float64) {
		if distance > 0 {
			return half * (1 - t), 0
		}
		return half * t, 0
	}
	return multiTouch(ts, el, steps, pt, offset)
}

// Rotate turns two fingers held RotateRadius either side of the centre of
// el by angle degrees; positive angles turn clockwise on screen.
func Rotate(ts *device.Touchscreen, el *html.Node, angle float64, steps int, pt *oracle.Point) error {
	if angle == 0 {
		return bot.NewError(bot.UnknownError, "cannot rotate by an angle of zero")
	}
	rad := angle * math.Pi / 180
	offset := func(t float64) (float64, float64) {
		s, c := math.Sincos(rad * t)
		return RotateRadius * c, RotateRadius * s
	}
	return multiTouch(ts, el, steps, pt, offset)
}

// multiTouch presses two fingers mirrored around the gesture centre and
// moves them through offset(i/steps). The centre is recomputed from el's
// current size before every move.
func multiTouch(ts *device.Touchscreen, el *html.Node, steps int, pt *oracle.Point,
	offset func(t float64) (float64, float64)) error {
	if steps < 1 {
		return bot.NewError(bot.UnknownError, "there must be at least one step as part of a multi-touch gesture")
	}
	win := ts.Window()
	c, err := prepare(win, el, pt)
	if err != nil {
		return err
	}
	move := func(t float64) error {
		ox, oy := offset(t)
		return ts.Move(el, c.X+ox, c.Y+oy, c.X-ox, c.Y-oy)
	}
	if err := move(0); err != nil {
		return err
	}
	if err := ts.Press(true); err != nil {
		return err
	}
	for i := 1; i <= steps; i++ {
		if pt == nil {
			if c, err = center(win, el); err != nil {
				return err
			}
		}
		if err := move(float64(i) / float64(steps)); err != nil {
			return err
		}
	}
	return ts.Release()
}
