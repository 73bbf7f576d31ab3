// Command diregram is a read-only terminal viewer for diregram documents:
// it runs the parse -> resolve -> layout pipeline over a file and draws the
// resulting boxes and connectors, live-updating as hub selections change.
package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/heysami/diregram-sub000/buffer"
	"github.com/heysami/diregram-sub000/core"
	"github.com/heysami/diregram-sub000/document"
	"github.com/heysami/diregram-sub000/layout"
)

// Terminal cells are not square; divide layout coordinates accordingly.
const (
	cellW = 8.0
	cellH = 14.0
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <document.md>\n", os.Args[0])
		os.Exit(2)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "diregram: %v\n", err)
		os.Exit(1)
	}

	doc := document.New(buffer.NewMemory(string(data)))
	defer doc.Close()

	if err := run(doc); err != nil {
		fmt.Fprintf(os.Stderr, "diregram: %v\n", err)
		os.Exit(1)
	}
}

type view struct {
	doc      *document.Document
	dir      core.Direction
	offX     int
	offY     int
	hubIdx   int // which hub Tab operates on
	valIdx   map[string]int
	statusAt string
}

func run(doc *document.Document) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	defer screen.Fini()

	v := &view{doc: doc}
	redraw := make(chan struct{}, 1)
	doc.OnChange(func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	})

	events := make(chan tcell.Event, 8)
	go func() {
		for {
			events <- screen.PollEvent()
		}
	}()

	v.draw(screen)
	for {
		select {
		case <-redraw:
			v.draw(screen)
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				v.draw(screen)
			case *tcell.EventKey:
				if !v.handleKey(ev) {
					return nil
				}
				v.draw(screen)
			}
		}
	}
}

// handleKey returns false when the viewer should exit.
func (v *view) handleKey(ev *tcell.EventKey) bool {
	switch {
	case ev.Key() == tcell.KeyEscape || ev.Rune() == 'q':
		return false
	case ev.Key() == tcell.KeyLeft:
		v.offX -= 4
	case ev.Key() == tcell.KeyRight:
		v.offX += 4
	case ev.Key() == tcell.KeyUp:
		v.offY -= 2
	case ev.Key() == tcell.KeyDown:
		v.offY += 2
	case ev.Rune() == 'd':
		if v.dir == core.Horizontal {
			v.dir = core.Vertical
		} else {
			v.dir = core.Horizontal
		}
	case ev.Key() == tcell.KeyTab:
		v.cycleSelection()
	}
	return true
}

// cycleSelection advances the current hub's first condition key to its next
// declared value, wrapping around.
func (v *view) cycleSelection() {
	hubs := v.hubs()
	if len(hubs) == 0 {
		return
	}
	hub := hubs[v.hubIdx%len(hubs)]
	if len(hub.Variants) == 0 || len(hub.Variants[0].Conditions) == 0 {
		return
	}
	key := hub.Variants[0].Conditions[0].Key

	var values []string
	for _, variant := range hub.Variants {
		for _, c := range variant.Conditions {
			if c.Key == key && !containsStr(values, c.Value) {
				values = append(values, c.Value)
			}
		}
	}
	if len(values) == 0 {
		return
	}
	if v.valIdx == nil {
		v.valIdx = make(map[string]int)
	}
	next := values[v.valIdx[hub.ID]%len(values)]
	v.valIdx[hub.ID]++
	if v.valIdx[hub.ID]%len(values) == 0 {
		v.hubIdx++ // wrapped this hub, move Tab to the next one
	}
	v.doc.Select(hub.ID, key, next)
	v.statusAt = fmt.Sprintf("%s: %s=%s", hub.Content, key, next)
}

func (v *view) hubs() []*core.Node {
	var out []*core.Node
	core.WalkAll(v.doc.Roots(), func(n *core.Node) bool {
		if n.Kind == core.KindHub {
			out = append(out, n)
		}
		return true
	})
	return out
}

func (v *view) draw(screen tcell.Screen) {
	screen.Clear()
	res := v.doc.Layout(v.dir)

	lineStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for _, c := range res.Connectors {
		v.drawLine(screen, c, lineStyle)
	}

	visual := v.doc.VisualTree()
	core.WalkAll(visual, func(n *core.Node) bool {
		if r, ok := res.Rects[n.ID]; ok {
			v.drawBox(screen, n, r)
		}
		return true
	})

	status := fmt.Sprintf(" %s | tab: cycle hub | d: direction | q: quit ", v.dir)
	if v.statusAt != "" {
		status += "| " + v.statusAt + " "
	}
	drawText(screen, 0, 0, status, tcell.StyleDefault.Reverse(true))
	screen.Show()
}

func (v *view) drawBox(screen tcell.Screen, n *core.Node, r core.Rect) {
	x := int(r.X/cellW) - v.offX
	y := int(r.Y/cellH) - v.offY + 1
	w := int(r.W / cellW)
	h := int(r.H / cellH)
	if w < 4 {
		w = 4
	}
	if h < 2 {
		h = 2
	}

	style := tcell.StyleDefault
	if n.Kind == core.KindHub {
		style = style.Foreground(tcell.ColorYellow)
	}
	if n.EffectiveFlowType().Diamond() {
		style = style.Foreground(tcell.ColorAqua)
	}

	screen.SetContent(x, y, '┌', nil, style)
	screen.SetContent(x+w, y, '┐', nil, style)
	screen.SetContent(x, y+h, '└', nil, style)
	screen.SetContent(x+w, y+h, '┘', nil, style)
	for i := x + 1; i < x+w; i++ {
		screen.SetContent(i, y, '─', nil, style)
		screen.SetContent(i, y+h, '─', nil, style)
	}
	for j := y + 1; j < y+h; j++ {
		screen.SetContent(x, j, '│', nil, style)
		screen.SetContent(x+w, j, '│', nil, style)
	}

	label := n.Content
	if n.Kind == core.KindHub {
		// Visual hubs carry no variants; count them on the parsed tree.
		if hub := v.doc.Node(n.ID); hub != nil {
			label = fmt.Sprintf("%s [%d]", n.Content, len(hub.Variants))
		}
	}
	if len(label) > w-2 && w > 5 {
		label = label[:w-3] + "…"
	}
	drawText(screen, x+1, y+1, label, style)
}

// drawLine draws a crude two-segment connector between endpoints.
func (v *view) drawLine(screen tcell.Screen, c layout.Connector, style tcell.Style) {
	x1, y1 := int(c.X1/cellW)-v.offX, int(c.Y1/cellH)-v.offY+1
	x2, y2 := int(c.X2/cellW)-v.offX, int(c.Y2/cellH)-v.offY+1
	r := '─'
	if c.Goto {
		r = '·'
	}
	for x := min(x1, x2); x <= max(x1, x2); x++ {
		screen.SetContent(x, y1, r, nil, style)
	}
	for y := min(y1, y2); y <= max(y1, y2); y++ {
		screen.SetContent(x2, y, '│', nil, style)
	}
}

func drawText(screen tcell.Screen, x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

func containsStr(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
