package markdown

import (
	"strings"

	"github.com/mdpress/notionup/internal/diag"
)

// ExecutionRecord holds the fields extracted from a remote execution
// log document: an H2 "実行記録: <timestamp>" (or "Execution record:"),
// bold metadata lines, and プロンプト/Prompt and 結果/Result
// subsections.
type ExecutionRecord struct {
	Timestamp  string
	Target     string
	PromptFile string
	// PromptPreview is the first line of the prompt section, used for
	// page naming.
	PromptPreview string
}

// Title renders a page title for the record, mirroring how the upload
// flow names execution-log pages.
func (r *ExecutionRecord) Title() string {
	if r.PromptPreview != "" {
		return "Execution record – " + r.PromptPreview + " (" + r.Timestamp + ")"
	}
	return "Execution record – " + r.Timestamp
}

// Normalize post-processes a parsed block sequence: admonition quotes
// are promoted to Callout nodes, and an execution-record section is
// restructured into a metadata block, a NOTE callout wrapping the
// prompt, and the result blocks left ordinary. Nothing is dropped; an
// unrecognized shape is left as parsed.
func Normalize(blocks []Block) ([]Block, *ExecutionRecord, diag.Warnings) {
	var warns diag.Warnings
	blocks = promoteCallouts(blocks, &warns)
	blocks, record := normalizeExecutionRecord(blocks)
	return blocks, record, warns
}

// isCalloutMarkerLine reports whether a line begins with the
// admonition marker pattern [!KIND].
func isCalloutMarkerLine(line string) bool {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "[!") {
		return false
	}
	end := strings.IndexByte(t, ']')
	return end > 2
}

func promoteCallouts(blocks []Block, warns *diag.Warnings) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		switch n := b.(type) {
		case *Quote:
			n.Children = promoteCallouts(n.Children, warns)
			out = append(out, promoteQuote(n, warns))
		case *ListItem:
			n.Children = promoteCallouts(n.Children, warns)
			out = append(out, n)
		default:
			out = append(out, b)
		}
	}
	return out
}

// promoteQuote turns a quote whose first run is an admonition marker
// into a Callout. Unknown labels keep generic quote semantics with the
// literal marker text retained as visible content.
func promoteQuote(q *Quote, warns *diag.Warnings) Block {
	marker := strings.TrimSpace(PlainText(q.Inlines))
	if !isCalloutMarkerLine(marker) {
		return q
	}
	end := strings.IndexByte(marker, ']')
	label := marker[2:end]
	custom := strings.TrimSpace(marker[end+1:])

	kind, known := ParseCalloutKind(label)
	if !known {
		warns.Add(diag.UnknownCallout, q.Line, "unknown admonition label %q", label)
		return q
	}

	title := custom
	if title == "" {
		title = kind.DefaultTitle()
	}
	c := &Callout{Kind: kind, Title: title, Children: q.Children, Line: q.Line}
	if len(c.Children) > 0 {
		if para, ok := c.Children[0].(*Paragraph); ok {
			c.Inlines = para.Inlines
			c.Children = c.Children[1:]
		}
	}
	return c
}

var (
	recordHeadings = []string{"実行記録:", "execution record:"}
	promptHeadings = []string{"プロンプト", "prompt"}
	resultHeadings = []string{"結果", "result"}
)

func headingMatches(b Block, level int, names []string) (string, bool) {
	h, ok := b.(*Heading)
	if !ok || h.Level != level {
		return "", false
	}
	text := strings.TrimSpace(PlainText(h.Inlines))
	lower := strings.ToLower(text)
	for _, name := range names {
		if strings.HasPrefix(lower, name) {
			return strings.TrimSpace(text[len(name):]), true
		}
	}
	return "", false
}

// normalizeExecutionRecord recognizes the execution-log shape and
// restructures it. If either subsection is missing the blocks are
// returned untouched; extracted metadata is still surfaced when the
// record heading was found.
func normalizeExecutionRecord(blocks []Block) ([]Block, *ExecutionRecord) {
	start := -1
	var record *ExecutionRecord
	for i, b := range blocks {
		if ts, ok := headingMatches(b, 2, recordHeadings); ok {
			record = &ExecutionRecord{Timestamp: ts}
			start = i
			break
		}
	}
	if record == nil {
		return blocks, nil
	}

	// Section ends at the next H1/H2 or end of document.
	end := len(blocks)
	for i := start + 1; i < end; i++ {
		if h, ok := blocks[i].(*Heading); ok && h.Level <= 2 {
			end = i
			break
		}
	}

	promptAt, resultAt := -1, -1
	for i := start + 1; i < end; i++ {
		if _, ok := headingMatches(blocks[i], 3, promptHeadings); ok && promptAt < 0 {
			promptAt = i
		}
		if _, ok := headingMatches(blocks[i], 3, resultHeadings); ok {
			resultAt = i
		}
	}

	extractRecordFields(blocks[start+1:end], record)
	if promptAt < 0 || resultAt < 0 || resultAt < promptAt {
		return blocks, record
	}

	promptBlocks := blocks[promptAt+1 : resultAt]
	if len(promptBlocks) > 0 {
		if para, ok := promptBlocks[0].(*Paragraph); ok {
			record.PromptPreview = previewOf(PlainText(para.Inlines))
		}
	}

	prompt := &Callout{
		Kind:     CalloutNote,
		Title:    "Prompt",
		Children: append([]Block(nil), promptBlocks...),
		Line:     lineOf(blocks[promptAt]),
	}
	if len(prompt.Children) > 0 {
		if para, ok := prompt.Children[0].(*Paragraph); ok {
			prompt.Inlines = para.Inlines
			prompt.Children = prompt.Children[1:]
		}
	}

	rebuilt := make([]Block, 0, len(blocks))
	rebuilt = append(rebuilt, blocks[:start+1]...)
	rebuilt = append(rebuilt, record.metadataBlock(lineOf(blocks[start])))
	rebuilt = append(rebuilt, nonFieldBlocks(blocks[start+1:promptAt])...)
	rebuilt = append(rebuilt, prompt)
	rebuilt = append(rebuilt, blocks[resultAt:end]...)
	rebuilt = append(rebuilt, blocks[end:]...)
	return rebuilt, record
}

type recordFieldPair struct {
	label string
	value string
}

// recordFields matches a paragraph made of **Label:** value runs.
// Adjacent metadata lines join into one paragraph during parsing, so a
// single paragraph can carry several pairs. A paragraph that is not
// entirely field-shaped yields nil.
func recordFields(b Block) []recordFieldPair {
	para, ok := b.(*Paragraph)
	if !ok || len(para.Inlines) == 0 {
		return nil
	}
	if _, ok := para.Inlines[0].(*Bold); !ok {
		return nil
	}

	var pairs []recordFieldPair
	for _, in := range para.Inlines {
		if bold, isBold := in.(*Bold); isBold {
			label := strings.TrimSpace(PlainText(bold.Children))
			if !strings.HasSuffix(label, ":") {
				return nil
			}
			pairs = append(pairs, recordFieldPair{label: strings.TrimSuffix(label, ":")})
			continue
		}
		pairs[len(pairs)-1].value += PlainText([]Inline{in})
	}
	for i := range pairs {
		pairs[i].value = strings.TrimSpace(pairs[i].value)
		if pairs[i].label == "" || pairs[i].value == "" {
			return nil
		}
	}
	return pairs
}

func extractRecordFields(blocks []Block, record *ExecutionRecord) {
	for _, b := range blocks {
		for _, f := range recordFields(b) {
			switch strings.ToLower(f.label) {
			case "接続先", "target":
				record.Target = f.value
			case "プロンプトファイル", "prompt file", "source file":
				record.PromptFile = f.value
			}
		}
	}
}

// nonFieldBlocks filters out the metadata paragraphs already folded
// into the metadata block.
func nonFieldBlocks(blocks []Block) []Block {
	var out []Block
	for _, b := range blocks {
		if len(recordFields(b)) > 0 {
			continue
		}
		out = append(out, b)
	}
	return out
}

// metadataBlock renders the extracted fields as one paragraph.
func (r *ExecutionRecord) metadataBlock(line int) Block {
	var inlines []Inline
	add := func(label, value string) {
		if value == "" {
			return
		}
		if len(inlines) > 0 {
			inlines = append(inlines, &Text{Value: "\n"})
		}
		inlines = append(inlines,
			&Bold{Children: []Inline{&Text{Value: label + ":"}}},
			&Text{Value: " " + value},
		)
	}
	add("Executed", r.Timestamp)
	add("Target", r.Target)
	add("Prompt file", r.PromptFile)
	return &Paragraph{Inlines: inlines, Line: line}
}

func previewOf(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	const max = 40
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return s
}

func lineOf(b Block) int {
	switch n := b.(type) {
	case *Heading:
		return n.Line
	case *Paragraph:
		return n.Line
	case *Quote:
		return n.Line
	case *Callout:
		return n.Line
	}
	return 0
}
