package terminal

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/blockstorm/internal/api"
	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/surface"
	"github.com/dshills/blockstorm/internal/tool"
)

// gutterWidth is the width of the marker column.
const gutterWidth = 4

const tabWidth = 4

// row is one screen line of the layout.
type row struct {
	marker  string
	text    string
	style   tcell.Style
	current bool
}

// frame is a snapshot of everything draw needs.
type frame struct {
	rows []row
	// caretX and caretY locate the caret in layout coordinates; caretY is -1
	// when the caret has no block.
	caretX, caretY int
	count          int
	current        int
	tool           string
}

func (t *Terminal) draw() {
	var f frame
	_ = t.app.Do(func(b *api.Blocks) error {
		f = layout(b)
		return nil
	})

	t.screen.Clear()
	width, height := t.screen.Size()
	body := height - 1

	if f.caretY >= 0 && body > 0 {
		if f.caretY < t.top {
			t.top = f.caretY
		}
		if f.caretY >= t.top+body {
			t.top = f.caretY - body + 1
		}
	}

	gutter := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for y := 0; y < body && t.top+y < len(f.rows); y++ {
		r := f.rows[t.top+y]
		gs := gutter
		if r.current {
			gs = gs.Foreground(tcell.ColorYellow)
		}
		drawString(t.screen, 0, y, gutterWidth-1, r.marker, gs)
		drawString(t.screen, gutterWidth, y, width, r.text, r.style)
	}

	t.drawStatus(f, width, height-1)

	if f.caretY >= 0 && f.caretY-t.top < body {
		t.screen.ShowCursor(f.caretX, f.caretY-t.top)
	} else {
		t.screen.HideCursor()
	}
	t.screen.Show()
}

func (t *Terminal) drawStatus(f frame, width, y int) {
	style := tcell.StyleDefault.Reverse(true)
	for x := 0; x < width; x++ {
		t.screen.SetContent(x, y, ' ', nil, style)
	}

	name := "[no file]"
	if p := t.app.DocumentPath(); p != "" {
		name = filepath.Base(p)
	}
	if t.app.IsModified() {
		name += " [+]"
	}
	left := fmt.Sprintf(" %s  %d/%d %s", name, f.current+1, f.count, f.tool)

	msg := t.statusMessage()
	if msg == "" && t.plus.Load() {
		msg = "+ Ctrl-T: change block type"
	}
	x := drawString(t.screen, 0, y, width, left, style)
	if msg != "" {
		drawString(t.screen, x+2, y, width, msg, style)
	}
}

// layout lays blocks out one input line per row and locates the caret.
func layout(b *api.Blocks) frame {
	c := b.Editor().Caret()
	caretBlock := c.Block()
	f := frame{caretY: -1, count: b.BlocksCount(), current: b.CurrentBlockIndex()}

	for i := 0; i < f.count; i++ {
		bl := b.BlockByIndex(i).Block()
		style := styleFor(bl)
		current := i == f.current
		if current {
			f.tool = bl.Name()
		}

		inputs := bl.Inputs()
		if len(inputs) == 0 {
			if bl == caretBlock {
				f.caretX, f.caretY = gutterWidth, len(f.rows)
			}
			f.rows = append(f.rows, row{marker: marker(bl, 0), text: summary(bl), style: style, current: current})
			continue
		}

		for j, in := range inputs {
			text := in.Text()
			if bl == caretBlock && j == c.InputIndex() {
				before := text[:surface.ByteOffset(text, c.Offset())]
				line := before[strings.LastIndex(before, "\n")+1:]
				f.caretX = gutterWidth + uniseg.StringWidth(expandTabs(line))
				f.caretY = len(f.rows) + strings.Count(before, "\n")
			}
			for k, line := range strings.Split(text, "\n") {
				r := row{text: expandTabs(line), style: style, current: current}
				if k == 0 {
					r.marker = marker(bl, j)
				}
				f.rows = append(f.rows, r)
			}
		}
	}
	return f
}

func styleFor(bl *block.Block) tcell.Style {
	style := tcell.StyleDefault
	switch bl.Name() {
	case tool.HeaderName:
		style = style.Bold(true)
	case tool.QuoteName:
		style = style.Italic(true)
	case tool.CodeName:
		style = style.Foreground(tcell.ColorGreen)
	case tool.StubName, tool.DelimiterName, tool.ImageName:
		style = style.Foreground(tcell.ColorGray)
	}
	if bl.Disabled() {
		style = style.Dim(true).StrikeThrough(true)
	}
	return style
}

// marker returns the gutter text for input j of bl.
func marker(bl *block.Block, j int) string {
	switch bl.Name() {
	case tool.ParagraphName:
		return ""
	case tool.HeaderName:
		return "H" + strconv.Itoa(bl.Data().Int("level", 2))
	case tool.QuoteName:
		if j > 0 {
			return "--"
		}
		return ">"
	case tool.ListName:
		if bl.Data().String("style") == "ordered" {
			return strconv.Itoa(j+1) + "."
		}
		return "*"
	case tool.CodeName:
		return "{}"
	case tool.ImageName:
		return "img"
	case tool.DelimiterName:
		return "--"
	case tool.StubName:
		return "?"
	}
	return "."
}

// summary describes a block without inputs.
func summary(bl *block.Block) string {
	data := bl.Data()
	switch bl.Name() {
	case tool.ImageName:
		if caption := data.String("caption"); caption != "" {
			return data.String("url") + "  " + caption
		}
		return data.String("url")
	case tool.DelimiterName:
		return "* * *"
	case tool.StubName:
		return "unsupported block: " + data.String("title")
	}
	return "[" + bl.Name() + "]"
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// drawString draws text from x up to maxX and returns the next column.
func drawString(s tcell.Screen, x, y, maxX int, text string, style tcell.Style) int {
	g := uniseg.NewGraphemes(text)
	for x < maxX && g.Next() {
		runes := g.Runes()
		s.SetContent(x, y, runes[0], runes[1:], style)
		x += max(g.Width(), 1)
	}
	return x
}
