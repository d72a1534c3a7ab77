package markdown

import (
	"strings"

	"github.com/mdpress/notionup/internal/diag"
)

// Parse consumes a Markdown body (frontmatter already removed) and
// returns the typed block sequence plus any recoverable warnings.
// Line numbers in warnings are 1-based within the body.
func Parse(body string) ([]Block, diag.Warnings) {
	lines := strings.Split(body, "\n")
	p := &parser{refs: collectRefs(lines)}
	blocks := p.parse(lines, 1)
	return blocks, p.warns
}

// CollectRefs builds the document-wide reference-link table from
// `[label]: url` definition lines. Labels match case-insensitively.
func CollectRefs(body string) RefTable {
	return collectRefs(strings.Split(body, "\n"))
}

type parser struct {
	refs  RefTable
	warns diag.Warnings
}

func collectRefs(lines []string) RefTable {
	refs := RefTable{}
	for _, line := range lines {
		if label, url, ok := refDefinition(line); ok {
			refs[strings.ToLower(label)] = url
		}
	}
	return refs
}

// refDefinition matches a link reference definition line.
func refDefinition(line string) (label, url string, ok bool) {
	t := strings.TrimLeft(line, " ")
	if len(line)-len(t) > 3 || !strings.HasPrefix(t, "[") {
		return "", "", false
	}
	end := matchBracket(t)
	if end < 1 || end+1 >= len(t) || t[end+1] != ':' {
		return "", "", false
	}
	rest := strings.TrimSpace(t[end+2:])
	if rest == "" || strings.ContainsAny(rest[:1], "<") {
		rest = strings.Trim(rest, "<>")
	}
	if sp := strings.IndexAny(rest, " \t"); sp >= 0 {
		rest = rest[:sp]
	}
	if rest == "" {
		return "", "", false
	}
	return t[1:end], rest, true
}

// parse runs the line state machine over lines; base is the 1-based
// line number of lines[0] for warning context.
func (p *parser) parse(lines []string, base int) []Block {
	var out []Block
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			i++
		case isRefDef(line):
			i++
		case isCodeFence(trimmed):
			i = p.parseFencedCode(lines, i, base, &out)
		case isMathFence(trimmed):
			i = p.parseMathBlock(lines, i, base, &out)
		case isATXHeading(trimmed):
			out = append(out, p.atxHeading(trimmed, base+i))
			i++
		case isQuoteLine(line):
			i = p.parseQuote(lines, i, base, &out)
		case isRule(trimmed):
			out = append(out, &Rule{Line: base + i})
			i++
		case isListLine(line):
			i = p.parseList(lines, i, base, &out)
		case isTableStart(lines, i):
			i = p.parseTable(lines, i, base, &out)
		default:
			i = p.parseParagraph(lines, i, base, &out)
		}
	}
	return out
}

func isRefDef(line string) bool {
	_, _, ok := refDefinition(line)
	return ok
}

func isCodeFence(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

func isMathFence(trimmed string) bool {
	return strings.HasPrefix(trimmed, "$$")
}

func isATXHeading(trimmed string) bool {
	n := runLen(trimmed, '#')
	return n >= 1 && n <= 6 && (len(trimmed) == n || trimmed[n] == ' ' || trimmed[n] == '\t')
}

func isQuoteLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " "), ">")
}

// isRule matches >=3 identical rule characters with only whitespace
// interspersed.
func isRule(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	var marker byte
	count := 0
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if c == ' ' || c == '\t' {
			continue
		}
		if c != '-' && c != '*' && c != '_' {
			return false
		}
		if marker == 0 {
			marker = c
		} else if c != marker {
			return false
		}
		count++
	}
	return count >= 3
}

// isSetextUnderline matches a line of one repeated = or - marker.
func isSetextUnderline(trimmed string) (level int, ok bool) {
	if trimmed == "" {
		return 0, false
	}
	c := trimmed[0]
	if c != '=' && c != '-' {
		return 0, false
	}
	if runLen(trimmed, c) != len(trimmed) {
		return 0, false
	}
	if c == '=' {
		return 1, true
	}
	return 2, true
}

func (p *parser) atxHeading(trimmed string, line int) *Heading {
	level := runLen(trimmed, '#')
	text := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(trimmed[level:]), "#"))
	return &Heading{
		Level:   level,
		Inlines: ParseInlines(text, p.refs, line, &p.warns),
		Line:    line,
	}
}

// parseFencedCode accumulates raw lines until the matching fence. At
// end of input the block is still emitted with a warning.
func (p *parser) parseFencedCode(lines []string, i, base int, out *[]Block) int {
	open := strings.TrimSpace(lines[i])
	marker := open[0]
	width := runLen(open, marker)
	lang := strings.TrimSpace(open[width:])
	if sp := strings.IndexAny(lang, " \t"); sp >= 0 {
		lang = lang[:sp]
	}
	start := i
	var body []string
	for j := i + 1; j < len(lines); j++ {
		t := strings.TrimSpace(lines[j])
		if runLen(t, marker) >= width && strings.TrimRight(t, string(marker)) == "" {
			*out = append(*out, &CodeBlock{Language: lang, Literal: strings.Join(body, "\n"), Line: base + start})
			return j + 1
		}
		body = append(body, lines[j])
	}
	p.warns.Add(diag.UnterminatedBlock, base+start, "code fence %q never closes", open)
	*out = append(*out, &CodeBlock{Language: lang, Literal: strings.Join(body, "\n"), Line: base + start})
	return len(lines)
}

// parseMathBlock handles $$ fences, including the one-line
// $$expr$$ form. Unterminated fences consume to end of input with a
// warning.
func (p *parser) parseMathBlock(lines []string, i, base int, out *[]Block) int {
	trimmed := strings.TrimSpace(lines[i])
	if len(trimmed) > 4 && strings.HasSuffix(trimmed, "$$") {
		expr := strings.TrimSpace(trimmed[2 : len(trimmed)-2])
		*out = append(*out, &MathBlock{Expression: expr, Line: base + i})
		return i + 1
	}
	start := i
	first := strings.TrimSpace(trimmed[2:])
	var body []string
	if first != "" {
		body = append(body, first)
	}
	for j := i + 1; j < len(lines); j++ {
		t := strings.TrimSpace(lines[j])
		if t == "$$" {
			*out = append(*out, &MathBlock{Expression: strings.Join(body, "\n"), Line: base + start})
			return j + 1
		}
		if strings.HasSuffix(t, "$$") {
			body = append(body, strings.TrimSpace(strings.TrimSuffix(t, "$$")))
			*out = append(*out, &MathBlock{Expression: strings.Join(body, "\n"), Line: base + start})
			return j + 1
		}
		body = append(body, lines[j])
	}
	p.warns.Add(diag.UnterminatedBlock, base+start, "math fence never closes")
	*out = append(*out, &MathBlock{Expression: strings.Join(body, "\n"), Line: base + start})
	return len(lines)
}

// parseQuote absorbs a quote run: consecutive > lines, including
// blank-line-separated continuations within the run. One marker level
// is stripped and the interior reparsed; nested markers become child
// quotes.
func (p *parser) parseQuote(lines []string, i, base int, out *[]Block) int {
	start := i
	var inner []string
	j := i
	for j < len(lines) {
		line := lines[j]
		if isQuoteLine(line) {
			inner = append(inner, stripQuoteMarker(line))
			j++
			continue
		}
		// A blank line continues the quote only when another quoted
		// line follows it.
		if strings.TrimSpace(line) == "" && j+1 < len(lines) && isQuoteLine(lines[j+1]) {
			inner = append(inner, "")
			j++
			continue
		}
		break
	}

	// An admonition marker owns its line; keep it out of the body
	// paragraph so the normalizer sees it as the first run.
	if len(inner) > 1 && isCalloutMarkerLine(inner[0]) && strings.TrimSpace(inner[1]) != "" {
		inner = append([]string{inner[0], ""}, inner[1:]...)
	}

	children := p.parse(inner, base+start)
	q := &Quote{Line: base + start}
	if len(children) > 0 {
		if para, ok := children[0].(*Paragraph); ok {
			q.Inlines = para.Inlines
			children = children[1:]
		}
	}
	q.Children = children
	*out = append(*out, q)
	return j
}

func stripQuoteMarker(line string) string {
	t := strings.TrimLeft(line, " ")
	t = strings.TrimPrefix(t, ">")
	if strings.HasPrefix(t, " ") {
		t = t[1:]
	}
	return t
}

// listItemLine holds one raw list line before tree assembly.
type listItemLine struct {
	depth   int
	ordered bool
	checked *bool
	text    string
	line    int
}

var listMarkers = []string{"- ", "* ", "+ "}

func splitListLine(line string) (listItemLine, bool) {
	indent := 0
	i := 0
	for i < len(line) {
		if line[i] == ' ' {
			indent++
		} else if line[i] == '\t' {
			indent += 4
		} else {
			break
		}
		i++
	}
	rest := line[i:]

	item := listItemLine{depth: indent / 2}
	matched := false
	for _, m := range listMarkers {
		if strings.HasPrefix(rest, m) {
			item.text = rest[len(m):]
			matched = true
			break
		}
	}
	if !matched {
		// Ordered marker: digits followed by . or )
		d := 0
		for d < len(rest) && rest[d] >= '0' && rest[d] <= '9' {
			d++
		}
		if d == 0 || d+1 >= len(rest) || (rest[d] != '.' && rest[d] != ')') || rest[d+1] != ' ' {
			return listItemLine{}, false
		}
		item.ordered = true
		item.text = strings.TrimPrefix(rest[d+1:], " ")
	}

	// Task checkbox.
	for _, box := range []struct {
		prefix  string
		checked bool
	}{{"[ ] ", false}, {"[x] ", true}, {"[X] ", true}} {
		if strings.HasPrefix(item.text, box.prefix) {
			v := box.checked
			item.checked = &v
			item.text = item.text[len(box.prefix):]
			break
		}
	}
	return item, true
}

func isListLine(line string) bool {
	_, ok := splitListLine(line)
	return ok
}

// parseList groups contiguous list lines into a nested item tree.
// Depth comes from leading whitespace (2 spaces or half a tab per
// level); skipped levels are normalized down to the parent's depth
// plus one.
func (p *parser) parseList(lines []string, i, base int, out *[]Block) int {
	var stack []*ListItem
	j := i
	for j < len(lines) {
		raw, ok := splitListLine(lines[j])
		if !ok {
			break
		}
		depth := raw.depth
		if depth > len(stack) {
			depth = len(stack)
		}

		item := &ListItem{
			Ordered: raw.ordered,
			Depth:   depth,
			Checked: raw.checked,
			Inlines: ParseInlines(raw.text, p.refs, base+j, &p.warns),
			Line:    base + j,
		}
		stack = stack[:depth]
		if depth == 0 {
			*out = append(*out, item)
		} else {
			parent := stack[depth-1]
			parent.Children = append(parent.Children, item)
		}
		stack = append(stack, item)
		j++
	}
	return j
}

// isTableStart requires a header line followed by a separator line of
// alignment syntax only.
func isTableStart(lines []string, i int) bool {
	if !strings.Contains(lines[i], "|") || i+1 >= len(lines) {
		return false
	}
	return isTableSeparator(lines[i+1])
}

func isTableSeparator(line string) bool {
	t := strings.TrimSpace(line)
	if !strings.Contains(t, "-") || !strings.ContainsAny(t, "|") {
		return false
	}
	for _, c := range t {
		switch c {
		case '|', '-', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// parseTable reads the header, separator, and body rows. A header and
// separator with no rows is a valid empty-body table.
func (p *parser) parseTable(lines []string, i, base int, out *[]Block) int {
	tbl := &Table{Line: base + i}
	tbl.Header = p.tableCells(lines[i], base+i)
	j := i + 2
	for j < len(lines) {
		t := strings.TrimSpace(lines[j])
		if t == "" || !strings.Contains(t, "|") {
			break
		}
		tbl.Rows = append(tbl.Rows, p.tableCells(lines[j], base+j))
		j++
	}
	*out = append(*out, tbl)
	return j
}

func (p *parser) tableCells(line string, lineNo int) []TableCell {
	t := strings.TrimSpace(line)
	t = strings.TrimPrefix(t, "|")
	t = strings.TrimSuffix(t, "|")
	parts := splitCells(t)
	cells := make([]TableCell, 0, len(parts))
	for _, part := range parts {
		cells = append(cells, TableCell{
			Inlines: ParseInlines(strings.TrimSpace(part), p.refs, lineNo, &p.warns),
		})
	}
	return cells
}

// splitCells splits on pipes, honoring backslash escapes.
func splitCells(s string) []string {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) {
				cur.WriteByte(s[i])
				cur.WriteByte(s[i+1])
				i++
				continue
			}
			cur.WriteByte(s[i])
		case '|':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(s[i])
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// parseParagraph accumulates text lines until a blank line or a
// structural line, honoring setext underlines. Images embedded in the
// text split the paragraph around them so each becomes its own block,
// and a paragraph that is exactly one hyperlink degrades to a Link.
func (p *parser) parseParagraph(lines []string, i, base int, out *[]Block) int {
	start := i
	var parts []string
	j := i
	for j < len(lines) {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" {
			break
		}
		if j > start {
			if level, ok := isSetextUnderline(trimmed); ok {
				text := strings.Join(parts, " ")
				*out = append(*out, &Heading{
					Level:   level,
					Inlines: ParseInlines(text, p.refs, base+start, &p.warns),
					Line:    base + start,
				})
				return j + 1
			}
			if isATXHeading(trimmed) || isCodeFence(trimmed) || isMathFence(trimmed) ||
				isQuoteLine(lines[j]) || isListLine(lines[j]) || isRule(trimmed) || isRefDef(lines[j]) {
				break
			}
		}
		parts = append(parts, trimmed)
		j++
	}
	if len(parts) == 0 {
		return j + 1
	}

	text := strings.Join(parts, " ")
	segs := splitImages(text)
	for _, seg := range segs {
		if seg.img != nil {
			seg.img.Line = base + start
			*out = append(*out, seg.img)
			continue
		}
		inlines := ParseInlines(seg.text, p.refs, base+start, &p.warns)
		if link, ok := linkOnly(inlines); ok && len(segs) == 1 {
			link.Line = base + start
			*out = append(*out, link)
			continue
		}
		*out = append(*out, &Paragraph{Inlines: inlines, Line: base + start})
	}
	return j
}

// paragraphSegment is either prose or an image peeled out of a
// paragraph so it can become its own block.
type paragraphSegment struct {
	text string
	img  *Image
}

// splitImages separates ![alt](src "caption") occurrences from the
// surrounding prose. Escaped bangs and code spans are opaque to the
// scan.
func splitImages(text string) []paragraphSegment {
	var segs []paragraphSegment
	last := 0
	i := 0
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
		case '`':
			i += codeSpanLen(text[i:])
		case '!':
			img, n := parseImage(text[i:])
			if img == nil {
				i++
				continue
			}
			if chunk := strings.TrimSpace(text[last:i]); chunk != "" {
				segs = append(segs, paragraphSegment{text: chunk})
			}
			segs = append(segs, paragraphSegment{img: img})
			i += n
			last = i
		default:
			i++
		}
	}
	if chunk := strings.TrimSpace(text[last:]); chunk != "" || len(segs) == 0 {
		segs = append(segs, paragraphSegment{text: chunk})
	}
	return segs
}

// codeSpanLen returns the length of the code span opening at the start
// of s, or the length of the backtick run when it never closes.
func codeSpanLen(s string) int {
	n := runLen(s, '`')
	idx := n
	for idx < len(s) {
		j := strings.IndexByte(s[idx:], '`')
		if j < 0 {
			return n
		}
		j += idx
		run := runLen(s[j:], '`')
		if run == n {
			return j + n
		}
		idx = j + run
	}
	return n
}

// parseImage matches ![alt](src "caption") at the start of s and
// returns the node with the matched length.
func parseImage(s string) (*Image, int) {
	if !strings.HasPrefix(s, "![") {
		return nil, 0
	}
	end := matchBracket(s[1:])
	if end < 0 {
		return nil, 0
	}
	alt := s[2 : 1+end]
	rest := s[1+end+1:]
	if !strings.HasPrefix(rest, "(") {
		return nil, 0
	}
	closing := strings.IndexByte(rest, ')')
	if closing < 0 {
		return nil, 0
	}
	target := rest[1:closing]
	caption := ""
	if sp := strings.IndexAny(target, " \t"); sp >= 0 {
		caption = strings.Trim(strings.TrimSpace(target[sp+1:]), `"`)
		target = target[:sp]
	}
	if target == "" {
		return nil, 0
	}
	return &Image{Source: target, Alt: alt, Caption: caption}, 1 + end + 1 + closing + 1
}

// linkOnly matches an inline run that is exactly one hyperlink.
func linkOnly(inlines []Inline) (*Link, bool) {
	var link *Hyperlink
	for _, in := range inlines {
		switch n := in.(type) {
		case *Hyperlink:
			if link != nil {
				return nil, false
			}
			link = n
		case *Text:
			if strings.TrimSpace(n.Value) != "" {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	if link == nil {
		return nil, false
	}
	display := strings.TrimSpace(PlainText(link.Children))
	if display == link.URL {
		display = ""
	}
	return &Link{URL: link.URL, Display: display}, true
}
