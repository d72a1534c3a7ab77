package markdown

import (
	"strings"
	"testing"

	"github.com/mdpress/notionup/internal/diag"
)

func TestParse_HeadingsAndParagraphs(t *testing.T) {
	input := `# Title

First paragraph spans
two lines.

Setext Heading
==============

Subsection
----------
`
	blocks, warns := Parse(input)
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(blocks))
	}

	h1 := blocks[0].(*Heading)
	if h1.Level != 1 || PlainText(h1.Inlines) != "Title" {
		t.Errorf("h1: level %d text %q", h1.Level, PlainText(h1.Inlines))
	}

	para := blocks[1].(*Paragraph)
	if PlainText(para.Inlines) != "First paragraph spans two lines." {
		t.Errorf("paragraph join: got %q", PlainText(para.Inlines))
	}

	setext := blocks[2].(*Heading)
	if setext.Level != 1 || PlainText(setext.Inlines) != "Setext Heading" {
		t.Errorf("setext h1: level %d text %q", setext.Level, PlainText(setext.Inlines))
	}
	sub := blocks[3].(*Heading)
	if sub.Level != 2 || PlainText(sub.Inlines) != "Subsection" {
		t.Errorf("setext h2: level %d text %q", sub.Level, PlainText(sub.Inlines))
	}
}

func TestParse_FencedCode(t *testing.T) {
	input := "```go\nfunc main() {\n\t// **not markdown**\n}\n```\n"
	blocks, warns := Parse(input)
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	cb := blocks[0].(*CodeBlock)
	if cb.Language != "go" {
		t.Errorf("language: got %q", cb.Language)
	}
	want := "func main() {\n\t// **not markdown**\n}"
	if cb.Literal != want {
		t.Errorf("literal: got %q, want %q", cb.Literal, want)
	}
}

func TestParse_UnterminatedFence(t *testing.T) {
	input := "before\n\n```python\nprint('hi')"
	blocks, warns := Parse(input)
	if len(blocks) != 2 {
		t.Fatalf("expected paragraph + code block, got %d blocks", len(blocks))
	}
	cb, ok := blocks[1].(*CodeBlock)
	if !ok {
		t.Fatalf("expected CodeBlock, got %T", blocks[1])
	}
	if cb.Literal != "print('hi')" {
		t.Errorf("content up to end of input: got %q", cb.Literal)
	}
	if len(warns) != 1 || warns[0].Kind != diag.UnterminatedBlock {
		t.Fatalf("expected one unterminated_block warning, got %v", warns)
	}
	if warns[0].Line != 3 {
		t.Errorf("warning should point at the opening fence, got line %d", warns[0].Line)
	}
}

func TestParse_MathBlock(t *testing.T) {
	input := "$$\n\\int_0^1 x\\,dx\n$$\n\n$$e^{i\\pi} = -1$$\n"
	blocks, warns := Parse(input)
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 math blocks, got %d", len(blocks))
	}
	if blocks[0].(*MathBlock).Expression != "\\int_0^1 x\\,dx" {
		t.Errorf("multiline: got %q", blocks[0].(*MathBlock).Expression)
	}
	if blocks[1].(*MathBlock).Expression != "e^{i\\pi} = -1" {
		t.Errorf("one-line: got %q", blocks[1].(*MathBlock).Expression)
	}
}

func TestParse_NestedList(t *testing.T) {
	input := `- top one
  - child a
  - child b
    - grandchild
- top two
1. ordered
`
	blocks, _ := Parse(input)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 top-level items, got %d", len(blocks))
	}

	one := blocks[0].(*ListItem)
	if PlainText(one.Inlines) != "top one" || one.Depth != 0 {
		t.Errorf("first item: %q depth %d", PlainText(one.Inlines), one.Depth)
	}
	if len(one.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(one.Children))
	}
	b := one.Children[1].(*ListItem)
	if len(b.Children) != 1 {
		t.Fatalf("expected grandchild under child b, got %d", len(b.Children))
	}
	if b.Children[0].(*ListItem).Depth != 2 {
		t.Errorf("grandchild depth: got %d", b.Children[0].(*ListItem).Depth)
	}

	ord := blocks[2].(*ListItem)
	if !ord.Ordered || PlainText(ord.Inlines) != "ordered" {
		t.Errorf("ordered item: ordered=%v text %q", ord.Ordered, PlainText(ord.Inlines))
	}
}

func TestParse_SkippedListLevelNormalized(t *testing.T) {
	input := "- top\n        - way too deep\n"
	blocks, _ := Parse(input)
	top := blocks[0].(*ListItem)
	if len(top.Children) != 1 {
		t.Fatalf("expected the over-indented item as a direct child, got %d children", len(top.Children))
	}
	if top.Children[0].(*ListItem).Depth != 1 {
		t.Errorf("depth should clamp to parent+1, got %d", top.Children[0].(*ListItem).Depth)
	}
}

func TestParse_TaskItems(t *testing.T) {
	input := "- [ ] open\n- [x] done\n- plain\n"
	blocks, _ := Parse(input)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 items, got %d", len(blocks))
	}
	open := blocks[0].(*ListItem)
	if open.Checked == nil || *open.Checked {
		t.Errorf("first item should be unchecked")
	}
	done := blocks[1].(*ListItem)
	if done.Checked == nil || !*done.Checked {
		t.Errorf("second item should be checked")
	}
	if blocks[2].(*ListItem).Checked != nil {
		t.Errorf("plain item should have nil Checked")
	}
}

func TestParse_RuleBeatsList(t *testing.T) {
	blocks, _ := Parse("- - -\n")
	if _, ok := blocks[0].(*Rule); !ok {
		t.Fatalf("dashes with spaces are a rule, got %T", blocks[0])
	}
	blocks, _ = Parse("***\n")
	if _, ok := blocks[0].(*Rule); !ok {
		t.Fatalf("*** is a rule, got %T", blocks[0])
	}
}

func TestParse_Quote(t *testing.T) {
	input := `> leading text
> continues here
>
> second paragraph
`
	blocks, _ := Parse(input)
	q := blocks[0].(*Quote)
	if PlainText(q.Inlines) != "leading text continues here" {
		t.Errorf("quote lead: got %q", PlainText(q.Inlines))
	}
	if len(q.Children) != 1 {
		t.Fatalf("expected 1 child paragraph, got %d", len(q.Children))
	}
	if PlainText(q.Children[0].(*Paragraph).Inlines) != "second paragraph" {
		t.Errorf("child paragraph: got %q", PlainText(q.Children[0].(*Paragraph).Inlines))
	}
}

func TestParse_NestedQuote(t *testing.T) {
	input := "> outer\n> > inner\n"
	blocks, _ := Parse(input)
	q := blocks[0].(*Quote)
	if PlainText(q.Inlines) != "outer" {
		t.Errorf("outer lead: got %q", PlainText(q.Inlines))
	}
	if len(q.Children) != 1 {
		t.Fatalf("expected nested quote, got %d children", len(q.Children))
	}
	inner, ok := q.Children[0].(*Quote)
	if !ok {
		t.Fatalf("expected *Quote child, got %T", q.Children[0])
	}
	if PlainText(inner.Inlines) != "inner" {
		t.Errorf("inner lead: got %q", PlainText(inner.Inlines))
	}
}

func TestParse_Table(t *testing.T) {
	input := `| Name | Value |
| --- | ---: |
| a | 1 |
| b | 2 |
`
	blocks, _ := Parse(input)
	tbl := blocks[0].(*Table)
	if len(tbl.Header) != 2 || PlainText(tbl.Header[0].Inlines) != "Name" {
		t.Fatalf("header: %+v", tbl.Header)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if PlainText(tbl.Rows[1][1].Inlines) != "2" {
		t.Errorf("cell content mismatch")
	}
}

func TestParse_HeaderOnlyTable(t *testing.T) {
	input := "| A | B |\n| --- | --- |\n"
	blocks, _ := Parse(input)
	tbl, ok := blocks[0].(*Table)
	if !ok {
		t.Fatalf("expected Table, got %T", blocks[0])
	}
	if len(tbl.Rows) != 0 {
		t.Errorf("expected empty body, got %d rows", len(tbl.Rows))
	}
}

func TestParse_PipesWithoutSeparatorAreParagraph(t *testing.T) {
	blocks, _ := Parse("a | b | c\n")
	if _, ok := blocks[0].(*Paragraph); !ok {
		t.Fatalf("pipe line without separator must stay a paragraph, got %T", blocks[0])
	}
}

func TestParse_StandaloneImage(t *testing.T) {
	input := "![diagram](assets/arch.png \"The architecture\")\n"
	blocks, _ := Parse(input)
	img := blocks[0].(*Image)
	if img.Source != "assets/arch.png" {
		t.Errorf("source: got %q", img.Source)
	}
	if img.Alt != "diagram" {
		t.Errorf("alt: got %q", img.Alt)
	}
	if img.Caption != "The architecture" {
		t.Errorf("caption: got %q", img.Caption)
	}
}

func TestParse_InlineImageSplitsParagraph(t *testing.T) {
	blocks, _ := Parse("before text ![shot](img/shot.png) after text\n")
	if len(blocks) != 3 {
		t.Fatalf("expected paragraph, image, paragraph; got %d blocks", len(blocks))
	}
	p1 := blocks[0].(*Paragraph)
	if PlainText(p1.Inlines) != "before text" {
		t.Errorf("leading prose: got %q", PlainText(p1.Inlines))
	}
	img := blocks[1].(*Image)
	if img.Source != "img/shot.png" || img.Alt != "shot" {
		t.Errorf("image: got %+v", img)
	}
	p2 := blocks[2].(*Paragraph)
	if PlainText(p2.Inlines) != "after text" {
		t.Errorf("trailing prose: got %q", PlainText(p2.Inlines))
	}
}

func TestParse_AdjacentInlineImages(t *testing.T) {
	blocks, _ := Parse("![a](one.png) ![b](two.png)\n")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 images, got %d blocks", len(blocks))
	}
	if blocks[0].(*Image).Source != "one.png" || blocks[1].(*Image).Source != "two.png" {
		t.Errorf("got %+v and %+v", blocks[0], blocks[1])
	}
}

func TestParse_ImageInCodeSpanStaysText(t *testing.T) {
	blocks, _ := Parse("use `![not](an-image.png)` literally\n")
	if len(blocks) != 1 {
		t.Fatalf("code span must not split the paragraph, got %d blocks", len(blocks))
	}
	para := blocks[0].(*Paragraph)
	found := false
	for _, in := range para.Inlines {
		if c, ok := in.(*CodeSpan); ok && c.Value == "![not](an-image.png)" {
			found = true
		}
	}
	if !found {
		t.Errorf("image syntax inside code span should survive verbatim: %+v", para.Inlines)
	}
}

func TestParse_StandaloneLink(t *testing.T) {
	blocks, _ := Parse("[Release notes](https://example.com/notes)\n")
	l := blocks[0].(*Link)
	if l.URL != "https://example.com/notes" || l.Display != "Release notes" {
		t.Errorf("got %+v", l)
	}

	blocks, _ = Parse("https://example.com/bare\n")
	l = blocks[0].(*Link)
	if l.URL != "https://example.com/bare" {
		t.Errorf("bare url: got %+v", l)
	}
	if l.Display != "" {
		t.Errorf("display equal to URL should collapse to empty, got %q", l.Display)
	}
}

func TestParse_LinkInsideProseStaysInline(t *testing.T) {
	blocks, _ := Parse("see [docs](https://example.com) for details\n")
	para, ok := blocks[0].(*Paragraph)
	if !ok {
		t.Fatalf("expected Paragraph, got %T", blocks[0])
	}
	if PlainText(para.Inlines) != "see docs for details" {
		t.Errorf("got %q", PlainText(para.Inlines))
	}
}

func TestParse_ReferenceDefinitionsInvisible(t *testing.T) {
	input := "[ref]: https://example.com/target\n\nuse [it][ref] now\n"
	blocks, warns := Parse(input)
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if len(blocks) != 1 {
		t.Fatalf("definition line must not produce a block, got %d blocks", len(blocks))
	}
	para := blocks[0].(*Paragraph)
	found := false
	for _, in := range para.Inlines {
		if h, ok := in.(*Hyperlink); ok && h.URL == "https://example.com/target" {
			found = true
		}
	}
	if !found {
		t.Errorf("reference was not resolved: %#v", para.Inlines)
	}
}

func TestParse_OrderPreserved(t *testing.T) {
	input := `# One

para

- item

> quote

## Two
`
	blocks, _ := Parse(input)
	kinds := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.(type) {
		case *Heading:
			kinds = append(kinds, "heading")
		case *Paragraph:
			kinds = append(kinds, "para")
		case *ListItem:
			kinds = append(kinds, "list")
		case *Quote:
			kinds = append(kinds, "quote")
		}
	}
	got := strings.Join(kinds, ",")
	if got != "heading,para,list,quote,heading" {
		t.Errorf("order: got %s", got)
	}
}
