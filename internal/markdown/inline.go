package markdown

import (
	"strings"

	"github.com/mdpress/notionup/internal/diag"
)

// RefTable maps lowercased link-reference labels to URLs. It is built
// in a pre-pass over the whole document and passed read-only into the
// tokenizer.
type RefTable map[string]string

// ParseInlines tokenizes one logical line (or joined paragraph) of raw
// text into an ordered run of inlines. Delimiters are matched left to
// right against the nearest valid closer; code and math span content is
// never re-tokenized; escaped delimiters are literal.
func ParseInlines(src string, refs RefTable, line int, warns *diag.Warnings) []Inline {
	s := &inlineScanner{src: src, refs: refs, line: line, warns: warns}
	return s.run()
}

type inlineScanner struct {
	src    string
	pos    int
	refs   RefTable
	line   int
	warns  *diag.Warnings
	inLink bool
}

func (s *inlineScanner) run() []Inline {
	var out []Inline
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			out = append(out, &Text{Value: lit.String()})
			lit.Reset()
		}
	}
	emit := func(n Inline) {
		flush()
		out = append(out, n)
	}

	for s.pos < len(s.src) {
		c := s.src[s.pos]
		var node Inline
		var ok bool

		switch c {
		case '\\':
			if s.pos+1 < len(s.src) {
				lit.WriteByte(s.src[s.pos+1])
				s.pos += 2
			} else {
				lit.WriteByte(c)
				s.pos++
			}
			continue
		case '`':
			node, ok = s.scanCode()
		case '$':
			node, ok = s.scanMath()
		case '*':
			node, ok = s.scanEmphasis('*')
		case '_':
			if s.atWordBoundary() {
				node, ok = s.scanEmphasis('_')
			}
		case '~':
			node, ok = s.scanStrike()
		case '[':
			node, ok = s.scanBracket()
		case '!':
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '[' {
				s.pos++
				node, ok = s.scanBracket()
				if !ok {
					s.pos--
				}
			}
		case '<':
			node, ok = s.scanAutolink()
		case 'h':
			if !s.inLink && s.atBareURL() {
				node, ok = s.scanBareURL()
			}
		}

		if ok {
			if node != nil {
				emit(node)
			}
			continue
		}
		lit.WriteByte(c)
		s.pos++
	}
	flush()
	return out
}

// scanCode matches a backtick span: the opening run of N backticks is
// closed by the nearest run of exactly N backticks.
func (s *inlineScanner) scanCode() (Inline, bool) {
	n := runLen(s.src[s.pos:], '`')
	open := strings.Repeat("`", n)
	rest := s.src[s.pos+n:]

	idx := 0
	for {
		j := strings.Index(rest[idx:], open)
		if j < 0 {
			return nil, false
		}
		j += idx
		if runLen(rest[j:], '`') == n {
			s.pos += n + j + n
			return &CodeSpan{Value: rest[:j]}, true
		}
		idx = j + runLen(rest[j:], '`')
	}
}

// scanMath matches $...$ or $$...$$; content is raw LaTeX.
func (s *inlineScanner) scanMath() (Inline, bool) {
	if strings.HasPrefix(s.src[s.pos:], "$$") {
		rest := s.src[s.pos+2:]
		if j := strings.Index(rest, "$$"); j >= 0 {
			s.pos += 2 + j + 2
			return &MathSpan{Value: strings.TrimSpace(rest[:j])}, true
		}
		return nil, false
	}
	rest := s.src[s.pos+1:]
	j := strings.IndexByte(rest, '$')
	if j <= 0 {
		return nil, false
	}
	s.pos += 1 + j + 1
	return &MathSpan{Value: rest[:j]}, true
}

func (s *inlineScanner) scanEmphasis(marker byte) (Inline, bool) {
	double := string(marker) + string(marker)
	if strings.HasPrefix(s.src[s.pos:], double) {
		rest := s.src[s.pos+2:]
		if j := strings.Index(rest, double); j > 0 {
			inner := s.sub(rest[:j])
			s.pos += 2 + j + 2
			return &Bold{Children: inner}, true
		}
		return nil, false
	}
	rest := s.src[s.pos+1:]
	j := strings.IndexByte(rest, marker)
	if j <= 0 {
		return nil, false
	}
	inner := s.sub(rest[:j])
	s.pos += 1 + j + 1
	return &Italic{Children: inner}, true
}

func (s *inlineScanner) scanStrike() (Inline, bool) {
	if !strings.HasPrefix(s.src[s.pos:], "~~") {
		return nil, false
	}
	rest := s.src[s.pos+2:]
	j := strings.Index(rest, "~~")
	if j <= 0 {
		return nil, false
	}
	inner := s.sub(rest[:j])
	s.pos += 2 + j + 2
	return &Strike{Children: inner}, true
}

// scanBracket handles [[wikilinks]], inline links [text](url), and
// reference links [text][label] / [text].
func (s *inlineScanner) scanBracket() (Inline, bool) {
	// Obsidian wikilink: flattened to its display text.
	if strings.HasPrefix(s.src[s.pos:], "[[") {
		rest := s.src[s.pos+2:]
		if j := strings.Index(rest, "]]"); j >= 0 {
			target := rest[:j]
			if bar := strings.IndexByte(target, '|'); bar >= 0 {
				target = target[bar+1:]
			}
			s.pos += 2 + j + 2
			return &Text{Value: target}, true
		}
		return nil, false
	}

	closeIdx := matchBracket(s.src[s.pos:])
	if closeIdx < 0 {
		return nil, false
	}
	label := s.src[s.pos+1 : s.pos+closeIdx]
	after := s.pos + closeIdx + 1

	// Inline form: [text](url) with optional "title".
	if after < len(s.src) && s.src[after] == '(' {
		if s.inLink {
			return nil, false
		}
		rest := s.src[after+1:]
		j := strings.IndexByte(rest, ')')
		if j < 0 {
			return nil, false
		}
		url := rest[:j]
		if sp := strings.IndexAny(url, " \t"); sp >= 0 {
			url = url[:sp]
		}
		children := s.subLink(label)
		s.pos = after + 1 + j + 1
		return &Hyperlink{URL: url, Children: children}, true
	}

	// Full/collapsed reference form: [text][label] or [text][].
	if after < len(s.src) && s.src[after] == '[' {
		rest := s.src[after:]
		j := strings.IndexByte(rest, ']')
		if j < 0 {
			return nil, false
		}
		ref := rest[1:j]
		if ref == "" {
			ref = label
		}
		end := after + j + 1
		url, found := s.refs[strings.ToLower(ref)]
		if !found {
			s.warns.Add(diag.UnresolvedReference, s.line, "no definition for reference %q", ref)
			s.pos = end
			return &Text{Value: "[" + label + "][" + ref + "]"}, true
		}
		if s.inLink {
			return nil, false
		}
		children := s.subLink(label)
		s.pos = end
		return &Hyperlink{URL: url, Children: children}, true
	}

	// Shortcut reference: [text], only when a definition exists.
	if url, found := s.refs[strings.ToLower(label)]; found && !s.inLink {
		children := s.subLink(label)
		s.pos = after
		return &Hyperlink{URL: url, Children: children}, true
	}
	return nil, false
}

// scanAutolink matches <http://...> style links.
func (s *inlineScanner) scanAutolink() (Inline, bool) {
	rest := s.src[s.pos+1:]
	j := strings.IndexByte(rest, '>')
	if j <= 0 {
		return nil, false
	}
	url := rest[:j]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, false
	}
	s.pos += 1 + j + 1
	if s.inLink {
		return &Text{Value: url}, true
	}
	return &Hyperlink{URL: url, Children: []Inline{&Text{Value: url}}}, true
}

func (s *inlineScanner) atBareURL() bool {
	if !strings.HasPrefix(s.src[s.pos:], "http://") && !strings.HasPrefix(s.src[s.pos:], "https://") {
		return false
	}
	if s.pos == 0 {
		return true
	}
	prev := s.src[s.pos-1]
	return prev == ' ' || prev == '\t' || prev == '(' || prev == '\n'
}

func (s *inlineScanner) scanBareURL() (Inline, bool) {
	end := s.pos
	for end < len(s.src) && !isURLStop(s.src[end]) {
		end++
	}
	url := strings.TrimRight(s.src[s.pos:end], ".,;:!?)")
	if url == "" {
		return nil, false
	}
	s.pos += len(url)
	return &Hyperlink{URL: url, Children: []Inline{&Text{Value: url}}}, true
}

// sub tokenizes nested content with the same context.
func (s *inlineScanner) sub(src string) []Inline {
	inner := &inlineScanner{src: src, refs: s.refs, line: s.line, warns: s.warns, inLink: s.inLink}
	return inner.run()
}

// subLink tokenizes hyperlink content; nested hyperlinks are disabled.
func (s *inlineScanner) subLink(src string) []Inline {
	inner := &inlineScanner{src: src, refs: s.refs, line: s.line, warns: s.warns, inLink: true}
	return inner.run()
}

// atWordBoundary reports whether the underscore at pos can open
// emphasis: snake_case identifiers stay literal.
func (s *inlineScanner) atWordBoundary() bool {
	if s.pos == 0 {
		return true
	}
	prev := s.src[s.pos-1]
	return !(prev >= 'a' && prev <= 'z' || prev >= 'A' && prev <= 'Z' || prev >= '0' && prev <= '9')
}

// matchBracket returns the index of the ] matching the [ at index 0,
// or -1. Nested brackets are balanced; escapes are honored.
func matchBracket(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func runLen(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

func isURLStop(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '<', '>', '"', ')':
		return true
	}
	return false
}
