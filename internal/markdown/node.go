// Package markdown parses a practical Markdown subset into a typed
// block tree: headings, paragraphs, nested lists, fenced code, block
// math, quotes and Obsidian callouts, images, links, rules, and tables.
// It is a line-oriented state machine over the source plus a recursive
// descent tokenizer for inline spans; both collect recoverable
// warnings instead of failing.
package markdown

// Block is a parsed block-level node. The set of implementations is
// closed; converters dispatch with an exhaustive type switch.
type Block interface {
	blockNode()
}

// Inline is a styled fragment of text within a block. Text, CodeSpan
// and MathSpan are leaves; the styling kinds wrap nested inlines so
// compositions like bold-inside-italic are trees, not flat markup.
type Inline interface {
	inlineNode()
}

// Heading is an ATX (#) or setext (underline) heading, level 1-6.
type Heading struct {
	Level   int
	Inlines []Inline
	Line    int
}

// Paragraph is a run of contiguous text lines.
type Paragraph struct {
	Inlines []Inline
	Line    int
}

// ListItem is one item of an ordered or unordered list. Depth is
// zero-based nesting derived from indentation. Checked is non-nil for
// task items. Children holds nested items.
type ListItem struct {
	Ordered  bool
	Depth    int
	Checked  *bool
	Inlines  []Inline
	Children []Block
	Line     int
}

// CodeBlock is a fenced code block. Language is the info string
// (may be empty); Literal is the raw content, verbatim.
type CodeBlock struct {
	Language string
	Literal  string
	Line     int
}

// Quote is a block quote. Inlines carry the leading paragraph;
// Children carry any further blocks inside the quote, including
// nested quotes.
type Quote struct {
	Inlines  []Inline
	Children []Block
	Line     int
}

// Callout is an admonition promoted from a Quote by the normalizer.
// Title is the visible title ([!KIND] Custom title, or the kind's
// default). Inlines and Children are the callout body.
type Callout struct {
	Kind     CalloutKind
	Title    string
	Inlines  []Inline
	Children []Block
	Line     int
}

// MathBlock is a $$-fenced display equation. Expression is raw LaTeX,
// passed through unmodified.
type MathBlock struct {
	Expression string
	Line       int
}

// Image is a standalone image. Source is a URL or a local path
// relative to the document; Caption comes from the Markdown title
// string when present.
type Image struct {
	Source  string
	Alt     string
	Caption string
	Line    int
}

// Link is a paragraph that consists of exactly one hyperlink. It gets
// its own node because the converter renders it as a navigable
// bookmark or embed rather than inline rich text.
type Link struct {
	URL     string
	Display string
	Line    int
}

// Rule is a horizontal rule.
type Rule struct {
	Line int
}

// Table is a pipe table. Header is the first row; Rows are the body
// rows (may be empty for a header-only table). Cells are inline runs.
type Table struct {
	Header []TableCell
	Rows   [][]TableCell
	Line   int
}

// TableCell is one cell's inline content.
type TableCell struct {
	Inlines []Inline
}

func (*Heading) blockNode()   {}
func (*Paragraph) blockNode() {}
func (*ListItem) blockNode()  {}
func (*CodeBlock) blockNode() {}
func (*Quote) blockNode()     {}
func (*Callout) blockNode()   {}
func (*MathBlock) blockNode() {}
func (*Image) blockNode()     {}
func (*Link) blockNode()      {}
func (*Rule) blockNode()      {}
func (*Table) blockNode()     {}

// Text is a literal text leaf.
type Text struct {
	Value string
}

// CodeSpan is an inline code leaf; its content is never re-tokenized.
type CodeSpan struct {
	Value string
}

// MathSpan is an inline equation leaf; raw LaTeX, no re-escaping.
type MathSpan struct {
	Value string
}

// Bold wraps nested inlines in strong emphasis.
type Bold struct {
	Children []Inline
}

// Italic wraps nested inlines in emphasis.
type Italic struct {
	Children []Inline
}

// Strike wraps nested inlines in strikethrough.
type Strike struct {
	Children []Inline
}

// Hyperlink wraps nested inlines with a target URL. Its children
// never contain another Hyperlink.
type Hyperlink struct {
	URL      string
	Children []Inline
}

func (*Text) inlineNode()      {}
func (*CodeSpan) inlineNode()  {}
func (*MathSpan) inlineNode()  {}
func (*Bold) inlineNode()      {}
func (*Italic) inlineNode()    {}
func (*Strike) inlineNode()    {}
func (*Hyperlink) inlineNode() {}

// PlainText flattens an inline run to its visible text.
func PlainText(inlines []Inline) string {
	var out string
	for _, in := range inlines {
		switch n := in.(type) {
		case *Text:
			out += n.Value
		case *CodeSpan:
			out += n.Value
		case *MathSpan:
			out += n.Value
		case *Bold:
			out += PlainText(n.Children)
		case *Italic:
			out += PlainText(n.Children)
		case *Strike:
			out += PlainText(n.Children)
		case *Hyperlink:
			out += PlainText(n.Children)
		}
	}
	return out
}
