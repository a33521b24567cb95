package convert

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/document"
	"github.com/dshills/blockstorm/internal/tool"
)

var sanitizer = bluemonday.UGCPolicy()

// HTML converts an HTML fragment into block records. Records carry no ids.
func HTML(src string) ([]document.SavedData, error) {
	clean := sanitizer.Sanitize(src)
	root, err := html.Parse(strings.NewReader(clean))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	c := &collector{}
	if body := findBody(root); body != nil {
		c.walk(body)
	}
	c.flush()
	return c.out, nil
}

type collector struct {
	out    []document.SavedData
	inline strings.Builder
}

func (c *collector) add(toolName string, data block.Data) {
	c.flush()
	c.out = append(c.out, document.SavedData{Tool: toolName, Data: data})
}

// flush emits pending inline content as a paragraph.
func (c *collector) flush() {
	text := strings.TrimSpace(c.inline.String())
	c.inline.Reset()
	if text == "" {
		return
	}
	c.out = append(c.out, document.SavedData{
		Tool: tool.ParagraphName,
		Data: block.Data{"text": text},
	})
}

func (c *collector) walk(parent *html.Node) {
	for n := parent.FirstChild; n != nil; n = n.NextSibling {
		switch n.Type {
		case html.TextNode:
			c.inline.WriteString(collapse(n.Data))
			continue
		case html.ElementNode:
		default:
			continue
		}

		switch n.DataAtom {
		case atom.P:
			if text := textOf(n, false); text != "" {
				c.add(tool.ParagraphName, block.Data{"text": text})
			} else {
				c.flush()
			}
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level := int(n.Data[1] - '0')
			c.add(tool.HeaderName, block.Data{"text": textOf(n, false), "level": level})
		case atom.Ul, atom.Ol:
			style := "unordered"
			if n.DataAtom == atom.Ol {
				style = "ordered"
			}
			c.add(tool.ListName, block.Data{"style": style, "items": listItems(n)})
		case atom.Blockquote:
			c.add(tool.QuoteName, quoteData(n))
		case atom.Pre:
			c.add(tool.CodeName, block.Data{"code": strings.Trim(textOf(n, true), "\n")})
		case atom.Img:
			c.add(tool.ImageName, imageData(n))
		case atom.Hr:
			c.add(tool.DelimiterName, block.Data{})
		case atom.Figure:
			c.figure(n)
		case atom.Br:
			c.inline.WriteString("\n")
		case atom.Div, atom.Section, atom.Article, atom.Main, atom.Header, atom.Footer, atom.Aside, atom.Nav:
			c.flush()
			c.walk(n)
			c.flush()
		default:
			c.inline.WriteString(textOf(n, false))
		}
	}
}

// figure maps an image with a figcaption onto one image record.
func (c *collector) figure(n *html.Node) {
	var img, caption *html.Node
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch ch.DataAtom {
		case atom.Img:
			img = ch
		case atom.Figcaption:
			caption = ch
		}
	}
	if img == nil {
		c.flush()
		c.walk(n)
		c.flush()
		return
	}
	data := imageData(img)
	if caption != nil {
		data["caption"] = textOf(caption, false)
	}
	c.add(tool.ImageName, data)
}

func listItems(n *html.Node) []any {
	items := []any{}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.DataAtom == atom.Li {
			items = append(items, textOf(ch, false))
		}
	}
	return items
}

func quoteData(n *html.Node) block.Data {
	var caption string
	var text strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.DataAtom == atom.Cite || ch.DataAtom == atom.Footer {
			caption = textOf(ch, false)
			continue
		}
		if ch.Type == html.TextNode {
			text.WriteString(collapse(ch.Data))
			continue
		}
		if text.Len() > 0 && isBlock(ch) {
			text.WriteString("\n")
		}
		text.WriteString(textOf(ch, false))
	}
	return block.Data{"text": strings.TrimSpace(text.String()), "caption": caption}
}

func imageData(n *html.Node) block.Data {
	return block.Data{"url": attr(n, "src"), "caption": attr(n, "alt")}
}

// textOf returns the text content of n. Outside preformatted content
// whitespace runs collapse to one space and br becomes a newline.
func textOf(n *html.Node, pre bool) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			switch {
			case ch.Type == html.TextNode && pre:
				sb.WriteString(ch.Data)
			case ch.Type == html.TextNode:
				sb.WriteString(collapse(ch.Data))
			case ch.DataAtom == atom.Br:
				sb.WriteString("\n")
			case ch.Type == html.ElementNode:
				visit(ch)
			}
		}
	}
	visit(n)
	if pre {
		return sb.String()
	}
	lines := strings.Split(sb.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

func collapse(s string) string {
	if s == "" {
		return ""
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isBlock(n *html.Node) bool {
	switch n.DataAtom {
	case atom.P, atom.Div, atom.Ul, atom.Ol, atom.Pre, atom.Blockquote,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if b := findBody(ch); b != nil {
			return b
		}
	}
	return nil
}
