// internal/bot/device/capture.go
package device

import (
	"sort"

	"golang.org/x/net/html"
)

// MousePointerID is the pointer id of the mouse. Touch identifiers start
// above it.
const MousePointerID int64 = 1

// PointerCapture maps pointer ids to the element capturing them. One map is
// shared by every device of a session and installed into the window, so page
// handlers can capture during a pointerdown dispatch.
type PointerCapture struct {
	elements map[int64]*html.Node
	pending  []int64
}

func NewPointerCapture() *PointerCapture {
	return &PointerCapture{elements: make(map[int64]*html.Node)}
}

// SetCapture implements dom.PointerCaptureSink.
func (c *PointerCapture) SetCapture(pointerID int64, el *html.Node) {
	if c.elements[pointerID] == el {
		return
	}
	c.elements[pointerID] = el
	c.pending = append(c.pending, pointerID)
}

// Release implements dom.PointerCaptureSink.
func (c *PointerCapture) Release(pointerID int64) {
	delete(c.elements, pointerID)
}

// Target returns the element capturing pointerID.
func (c *PointerCapture) Target(pointerID int64) (*html.Node, bool) {
	if c == nil {
		return nil, false
	}
	el, ok := c.elements[pointerID]
	return el, ok
}

// takeGained returns the captures made since the last call, in the order
// they were made.
func (c *PointerCapture) takeGained() []int64 {
	out := c.pending
	c.pending = nil
	return out
}

// Clear drops every capture and returns the previous map.
func (c *PointerCapture) Clear() map[int64]*html.Node {
	old := c.elements
	c.elements = make(map[int64]*html.Node)
	c.pending = nil
	return old
}

// IDs lists the captured pointer ids in ascending order.
func (c *PointerCapture) IDs() []int64 {
	ids := make([]int64, 0, len(c.elements))
	for id := range c.elements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *PointerCapture) Len() int { return len(c.elements) }
