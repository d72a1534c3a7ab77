package notion

import (
	"strings"
	"unicode/utf8"

	"github.com/jomei/notionapi"

	"github.com/mdpress/notionup/internal/markdown"
)

// richText converts an inline run tree to Notion rich text, carrying
// annotation state down through nested styles so compositions like
// bold-inside-italic survive. Text longer than the per-element ceiling
// is split across elements.
func (c *Converter) richText(inlines []markdown.Inline) []notionapi.RichText {
	return c.appendRuns(nil, inlines, notionapi.Annotations{}, "")
}

func (c *Converter) appendRuns(out []notionapi.RichText, inlines []markdown.Inline, ann notionapi.Annotations, link string) []notionapi.RichText {
	for _, in := range inlines {
		switch n := in.(type) {
		case *markdown.Text:
			out = c.appendText(out, n.Value, ann, link)
		case *markdown.CodeSpan:
			code := ann
			code.Code = true
			out = c.appendText(out, n.Value, code, link)
		case *markdown.MathSpan:
			out = append(out, notionapi.RichText{
				Type:     notionapi.ObjectType("equation"),
				Equation: &notionapi.Equation{Expression: n.Value},
			})
		case *markdown.Bold:
			next := ann
			next.Bold = true
			out = c.appendRuns(out, n.Children, next, link)
		case *markdown.Italic:
			next := ann
			next.Italic = true
			out = c.appendRuns(out, n.Children, next, link)
		case *markdown.Strike:
			next := ann
			next.Strikethrough = true
			out = c.appendRuns(out, n.Children, next, link)
		case *markdown.Hyperlink:
			out = c.appendRuns(out, n.Children, ann, n.URL)
		}
	}
	return out
}

func (c *Converter) appendText(out []notionapi.RichText, text string, ann notionapi.Annotations, link string) []notionapi.RichText {
	for _, part := range splitLongText(text, c.opts.MaxRichTextLen) {
		rt := notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: part},
		}
		if link != "" {
			rt.Text.Link = &notionapi.Link{Url: link}
		}
		if ann != (notionapi.Annotations{}) {
			a := ann
			rt.Annotations = &a
		}
		out = append(out, rt)
	}
	return out
}

// plainRichText wraps a literal string as a single unstyled element.
func plainRichText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}

// splitLongText splits text at max characters, preferring line
// boundaries: lines are kept whole unless a single line alone exceeds
// the limit. The ceiling counts runes, not bytes, so multibyte text is
// never cut mid-rune.
func splitLongText(text string, max int) []string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	start := 0
	for start <= len(text) {
		end := len(text)
		if idx := strings.IndexByte(text[start:], '\n'); idx >= 0 {
			end = start + idx + 1
		}
		line := text[start:end]
		lineLen := utf8.RuneCountInString(line)
		if curLen+lineLen > max {
			flush()
			for lineLen > max {
				cut := runeOffset(line, max)
				chunks = append(chunks, line[:cut])
				line = line[cut:]
				lineLen -= max
			}
			cur.WriteString(line)
			curLen = lineLen
		} else {
			cur.WriteString(line)
			curLen += lineLen
		}
		if end >= len(text) {
			break
		}
		start = end
	}
	flush()
	if len(chunks) == 0 {
		chunks = []string{""}
	}
	return chunks
}

// runeOffset returns the byte offset just past the first n runes of s.
func runeOffset(s string, n int) int {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}
