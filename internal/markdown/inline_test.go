package markdown

import (
	"testing"

	"github.com/mdpress/notionup/internal/diag"
)

func tokenize(t *testing.T, src string) ([]Inline, diag.Warnings) {
	t.Helper()
	var warns diag.Warnings
	return ParseInlines(src, nil, 1, &warns), warns
}

func TestInline_BoldItalicNesting(t *testing.T) {
	out, _ := tokenize(t, "plain **bold *both*** end")
	if len(out) != 3 {
		t.Fatalf("expected 3 inlines, got %d: %#v", len(out), out)
	}
	b, ok := out[1].(*Bold)
	if !ok {
		t.Fatalf("expected Bold, got %T", out[1])
	}
	if len(b.Children) != 2 {
		t.Fatalf("expected bold to contain text + italic, got %d children", len(b.Children))
	}
	if _, ok := b.Children[1].(*Italic); !ok {
		t.Errorf("expected nested Italic, got %T", b.Children[1])
	}
	if PlainText(out) != "plain bold both end" {
		t.Errorf("plain text: got %q", PlainText(out))
	}
}

func TestInline_CodeSpanNotRetokenized(t *testing.T) {
	out, _ := tokenize(t, "use `**not bold**` here")
	if len(out) != 3 {
		t.Fatalf("expected 3 inlines, got %d", len(out))
	}
	cs, ok := out[1].(*CodeSpan)
	if !ok {
		t.Fatalf("expected CodeSpan, got %T", out[1])
	}
	if cs.Value != "**not bold**" {
		t.Errorf("code span content: got %q", cs.Value)
	}
}

func TestInline_DoubleBacktickSpan(t *testing.T) {
	out, _ := tokenize(t, "``a ` inside``")
	cs, ok := out[0].(*CodeSpan)
	if !ok {
		t.Fatalf("expected CodeSpan, got %T", out[0])
	}
	if cs.Value != "a ` inside" {
		t.Errorf("got %q", cs.Value)
	}
}

func TestInline_MathSpan(t *testing.T) {
	out, _ := tokenize(t, "energy $E = mc^2$ equation")
	if len(out) != 3 {
		t.Fatalf("expected 3 inlines, got %d", len(out))
	}
	m, ok := out[1].(*MathSpan)
	if !ok {
		t.Fatalf("expected MathSpan, got %T", out[1])
	}
	if m.Value != "E = mc^2" {
		t.Errorf("expression: got %q", m.Value)
	}
}

func TestInline_UnterminatedDelimiterIsLiteral(t *testing.T) {
	out, _ := tokenize(t, "a **dangling bold")
	if len(out) != 1 {
		t.Fatalf("expected 1 literal inline, got %d", len(out))
	}
	txt, ok := out[0].(*Text)
	if !ok || txt.Value != "a **dangling bold" {
		t.Errorf("got %T %v", out[0], out[0])
	}
}

func TestInline_EscapedDelimiter(t *testing.T) {
	out, _ := tokenize(t, `not \*emphasis\* here`)
	if len(out) != 1 {
		t.Fatalf("expected 1 inline, got %d", len(out))
	}
	if out[0].(*Text).Value != "not *emphasis* here" {
		t.Errorf("got %q", out[0].(*Text).Value)
	}
}

func TestInline_SnakeCaseStaysLiteral(t *testing.T) {
	out, _ := tokenize(t, "call do_thing_now directly")
	if len(out) != 1 {
		t.Fatalf("expected 1 inline, got %d: %#v", len(out), out)
	}
	if out[0].(*Text).Value != "call do_thing_now directly" {
		t.Errorf("got %q", out[0].(*Text).Value)
	}
}

func TestInline_Strike(t *testing.T) {
	out, _ := tokenize(t, "~~gone~~")
	st, ok := out[0].(*Strike)
	if !ok {
		t.Fatalf("expected Strike, got %T", out[0])
	}
	if PlainText(st.Children) != "gone" {
		t.Errorf("got %q", PlainText(st.Children))
	}
}

func TestInline_InlineLink(t *testing.T) {
	out, _ := tokenize(t, `see [the docs](https://example.com/docs "Docs") now`)
	if len(out) != 3 {
		t.Fatalf("expected 3 inlines, got %d", len(out))
	}
	h, ok := out[1].(*Hyperlink)
	if !ok {
		t.Fatalf("expected Hyperlink, got %T", out[1])
	}
	if h.URL != "https://example.com/docs" {
		t.Errorf("url: got %q", h.URL)
	}
	if PlainText(h.Children) != "the docs" {
		t.Errorf("display: got %q", PlainText(h.Children))
	}
}

func TestInline_NoNestedHyperlink(t *testing.T) {
	out, _ := tokenize(t, "[outer <https://inner.example> text](https://outer.example)")
	h, ok := out[0].(*Hyperlink)
	if !ok {
		t.Fatalf("expected Hyperlink, got %T", out[0])
	}
	for _, child := range h.Children {
		if _, nested := child.(*Hyperlink); nested {
			t.Fatalf("hyperlink contains a nested hyperlink: %#v", h.Children)
		}
	}
}

func TestInline_ReferenceLink(t *testing.T) {
	refs := RefTable{"guide": "https://example.com/guide"}
	var warns diag.Warnings
	out := ParseInlines("read [the guide][GUIDE]", refs, 1, &warns)
	if len(out) != 2 {
		t.Fatalf("expected 2 inlines, got %d", len(out))
	}
	h, ok := out[1].(*Hyperlink)
	if !ok {
		t.Fatalf("expected Hyperlink, got %T", out[1])
	}
	if h.URL != "https://example.com/guide" {
		t.Errorf("labels must match case-insensitively, got %q", h.URL)
	}
}

func TestInline_UnresolvedReferenceWarnsAndStaysLiteral(t *testing.T) {
	var warns diag.Warnings
	out := ParseInlines("read [text][missing]", RefTable{}, 7, &warns)
	if len(warns) != 1 || warns[0].Kind != diag.UnresolvedReference {
		t.Fatalf("expected one unresolved_reference warning, got %v", warns)
	}
	if warns[0].Line != 7 {
		t.Errorf("warning line: got %d", warns[0].Line)
	}
	if PlainText(out) != "read [text][missing]" {
		t.Errorf("literal preservation: got %q", PlainText(out))
	}
}

func TestInline_WikilinkFlattens(t *testing.T) {
	out, _ := tokenize(t, "see [[Other Note|the alias]] here")
	if PlainText(out) != "see the alias here" {
		t.Errorf("got %q", PlainText(out))
	}
	for _, in := range out {
		if _, ok := in.(*Hyperlink); ok {
			t.Errorf("wikilink must not produce a hyperlink")
		}
	}
}

func TestInline_BareURL(t *testing.T) {
	out, _ := tokenize(t, "visit https://example.com/page. now")
	if len(out) != 3 {
		t.Fatalf("expected 3 inlines, got %d: %#v", len(out), out)
	}
	h, ok := out[1].(*Hyperlink)
	if !ok {
		t.Fatalf("expected Hyperlink, got %T", out[1])
	}
	if h.URL != "https://example.com/page" {
		t.Errorf("trailing punctuation should be trimmed, got %q", h.URL)
	}
}
