// Package notion maps the parsed block tree onto Notion API blocks,
// plans the page partition under the per-page block quota, and wraps
// the page-creation client.
package notion

import (
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/mdpress/notionup/internal/diag"
	"github.com/mdpress/notionup/internal/markdown"
)

// Options controls destination-imposed limits and conversion policy.
type Options struct {
	// MaxRichTextLen is the destination's per-element text ceiling.
	MaxRichTextLen int
	// VideoDomains are URL hosts rendered as embeds instead of
	// bookmarks.
	VideoDomains []string
	// NativeCallouts selects native callout blocks; when false,
	// callouts degrade to quote blocks with a rendered kind label.
	NativeCallouts bool
}

// DefaultOptions mirrors the Notion API limits.
func DefaultOptions() Options {
	return Options{
		MaxRichTextLen: 2000,
		VideoDomains:   []string{"youtube.com", "youtu.be", "vimeo.com"},
		NativeCallouts: true,
	}
}

// PendingImage is an image block whose local source still needs a
// hosted URL. The converter performs no I/O; the caller resolves the
// path and rewrites the block before packaging.
type PendingImage struct {
	Block *notionapi.ImageBlock
	Path  string
	Line  int
}

// Converter maps parsed blocks to Notion blocks. It tracks images seen
// in the current document so duplicates upload once.
type Converter struct {
	opts    Options
	baseDir string
	seen    map[string]bool
	pending []*PendingImage
	warns   diag.Warnings
}

// NewConverter builds a converter; baseDir anchors relative image
// paths.
func NewConverter(opts Options, baseDir string) *Converter {
	if opts.MaxRichTextLen <= 0 {
		opts.MaxRichTextLen = 2000
	}
	return &Converter{opts: opts, baseDir: baseDir, seen: map[string]bool{}}
}

// Convert maps the block sequence to Notion blocks. The returned
// pending images reference blocks inside the result.
func (c *Converter) Convert(blocks []markdown.Block) (notionapi.Blocks, []*PendingImage, diag.Warnings) {
	out := c.convertAll(blocks)
	return out, c.pending, c.warns
}

func (c *Converter) convertAll(blocks []markdown.Block) notionapi.Blocks {
	var out notionapi.Blocks
	for _, b := range blocks {
		out = append(out, c.convertBlock(b)...)
	}
	return out
}

func (c *Converter) convertBlock(b markdown.Block) notionapi.Blocks {
	switch n := b.(type) {
	case *markdown.Heading:
		return notionapi.Blocks{c.heading(n)}
	case *markdown.Paragraph:
		return notionapi.Blocks{&notionapi.ParagraphBlock{
			BasicBlock: basic(notionapi.BlockTypeParagraph),
			Paragraph:  notionapi.Paragraph{RichText: c.richText(n.Inlines)},
		}}
	case *markdown.ListItem:
		return notionapi.Blocks{c.listItem(n)}
	case *markdown.CodeBlock:
		return c.codeBlock(n)
	case *markdown.Quote:
		return notionapi.Blocks{c.quote(n)}
	case *markdown.Callout:
		return notionapi.Blocks{c.callout(n)}
	case *markdown.MathBlock:
		return notionapi.Blocks{equationBlock(n.Expression)}
	case *markdown.Image:
		return c.image(n)
	case *markdown.Link:
		return notionapi.Blocks{c.link(n)}
	case *markdown.Rule:
		return notionapi.Blocks{&notionapi.DividerBlock{
			BasicBlock: basic(notionapi.BlockTypeDivider),
			Divider:    notionapi.Divider{},
		}}
	case *markdown.Table:
		return notionapi.Blocks{c.table(n)}
	}
	return nil
}

func basic(t notionapi.BlockType) notionapi.BasicBlock {
	return notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: t}
}

// heading maps levels 1-3 to native headings; 4-6 flatten to the
// deepest native level.
func (c *Converter) heading(h *markdown.Heading) notionapi.Block {
	rt := c.richText(h.Inlines)
	switch h.Level {
	case 1:
		return &notionapi.Heading1Block{
			BasicBlock: basic(notionapi.BlockTypeHeading1),
			Heading1:   notionapi.Heading{RichText: rt},
		}
	case 2:
		return &notionapi.Heading2Block{
			BasicBlock: basic(notionapi.BlockTypeHeading2),
			Heading2:   notionapi.Heading{RichText: rt},
		}
	default:
		return &notionapi.Heading3Block{
			BasicBlock: basic(notionapi.BlockTypeHeading3),
			Heading3:   notionapi.Heading{RichText: rt},
		}
	}
}

// listItem keeps the container relationship: nested items convert into
// the block's children. Ordered vs. unordered comes from the node's
// flag, never re-inferred.
func (c *Converter) listItem(li *markdown.ListItem) notionapi.Block {
	rt := c.richText(li.Inlines)
	children := c.convertAll(li.Children)

	if li.Checked != nil {
		return &notionapi.ToDoBlock{
			BasicBlock: basic(notionapi.BlockTypeToDo),
			ToDo:       notionapi.ToDo{RichText: rt, Checked: *li.Checked, Children: children},
		}
	}
	if li.Ordered {
		return &notionapi.NumberedListItemBlock{
			BasicBlock:       basic(notionapi.BlockTypeNumberedListItem),
			NumberedListItem: notionapi.ListItem{RichText: rt, Children: children},
		}
	}
	return &notionapi.BulletedListItemBlock{
		BasicBlock:       basic(notionapi.BlockTypeBulletedListItem),
		BulletedListItem: notionapi.ListItem{RichText: rt, Children: children},
	}
}

// mathLanguages reclassify a fenced code block as an equation. This
// happens here rather than in the parser: it is a destination type
// mapping, not a syntax question.
var mathLanguages = map[string]bool{"math": true, "latex": true, "tex": true}

// latexFragments mark an untagged fence as display math when any of
// them appears in the content. Tagged fences are never sniffed.
var latexFragments = []string{
	`\begin{`, `\end{`, `\frac`, `\sum`, `\int`, `\lim`, `\nabla`,
	`\partial`, `\alpha`, `\beta`, `\gamma`, `\delta`, `\epsilon`,
	`\zeta`, `\eta`, `\theta`, `\iota`, `\kappa`, `\lambda`, `\mu`,
	`\nu`, `\xi`, `\pi`, `\rho`, `\sigma`, `\tau`, `\upsilon`, `\phi`,
	`\chi`, `\psi`, `\omega`, `\left`, `\right`, `\mathbf`, `\mathcal`,
	`\mathrm`, `\cdot`, `\times`, `\div`, `\pm`, `\mp`, `\cap`, `\cup`,
	`\subset`, `\supset`, `\in`, `\notin`, `\forall`, `\exists`, `\neg`,
	`\vee`, `\wedge`, `\Rightarrow`, `\Leftarrow`, `\Leftrightarrow`,
}

func isLatexContent(content string) bool {
	for _, frag := range latexFragments {
		if strings.Contains(content, frag) {
			return true
		}
	}
	return false
}

var languageAliases = map[string]string{
	"sh":       "bash",
	"shell":    "bash",
	"zsh":      "bash",
	"js":       "javascript",
	"ts":       "typescript",
	"puml":     "plain text",
	"plantuml": "plain text",
	"gnuplot":  "plain text",
}

func (c *Converter) codeBlock(cb *markdown.CodeBlock) notionapi.Blocks {
	lang := strings.ToLower(cb.Language)
	if mathLanguages[lang] || (lang == "" && isLatexContent(cb.Literal)) {
		return notionapi.Blocks{equationBlock(strings.TrimSpace(cb.Literal))}
	}
	if alias, ok := languageAliases[lang]; ok {
		lang = alias
	}
	if lang == "" {
		lang = "plain text"
	}

	parts := splitLongText(cb.Literal, c.opts.MaxRichTextLen)
	var out notionapi.Blocks
	for i, part := range parts {
		out = append(out, &notionapi.CodeBlock{
			BasicBlock: basic(notionapi.BlockTypeCode),
			Code:       notionapi.Code{Language: lang, RichText: plainRichText(part)},
		})
		if i < len(parts)-1 {
			marker := "(code continues " + strconv.Itoa(i+2) + "/" + strconv.Itoa(len(parts)) + ")"
			out = append(out, &notionapi.ParagraphBlock{
				BasicBlock: basic(notionapi.BlockTypeParagraph),
				Paragraph:  notionapi.Paragraph{RichText: plainRichText(marker)},
			})
		}
	}
	return out
}

func equationBlock(expr string) notionapi.Block {
	return &notionapi.EquationBlock{
		BasicBlock: basic(notionapi.BlockType("equation")),
		Equation:   notionapi.Equation{Expression: expr},
	}
}

func (c *Converter) quote(q *markdown.Quote) notionapi.Block {
	return &notionapi.QuoteBlock{
		BasicBlock: basic(notionapi.BlockType("quote")),
		Quote: notionapi.Quote{
			RichText: c.richText(q.Inlines),
			Children: c.convertAll(q.Children),
		},
	}
}

// callout renders natively when the destination supports it; otherwise
// it degrades to a quote carrying the kind label as a text prefix,
// losing only the distinct styling.
func (c *Converter) callout(n *markdown.Callout) notionapi.Block {
	var rt []notionapi.RichText
	if n.Title != "" {
		rt = append(rt, notionapi.RichText{
			Type:        notionapi.ObjectTypeText,
			Text:        &notionapi.Text{Content: n.Title + "\n"},
			Annotations: &notionapi.Annotations{Bold: true},
		})
	}
	rt = append(rt, c.richText(n.Inlines)...)
	children := c.convertAll(n.Children)

	if !c.opts.NativeCallouts {
		label := n.Kind.Icon() + " "
		return &notionapi.QuoteBlock{
			BasicBlock: basic(notionapi.BlockType("quote")),
			Quote: notionapi.Quote{
				RichText: append(plainRichText(label), rt...),
				Children: children,
			},
		}
	}

	emoji := notionapi.Emoji(n.Kind.Icon())
	return &notionapi.CalloutBlock{
		BasicBlock: basic(notionapi.BlockType("callout")),
		Callout: notionapi.Callout{
			RichText: rt,
			Icon:     &notionapi.Icon{Type: "emoji", Emoji: &emoji},
			Color:    n.Kind.Color(),
			Children: children,
		},
	}
}

// image emits hosted URLs directly. Local paths produce a block that
// still references the path; the upload flow substitutes the hosted
// URL before packaging. Duplicate sources convert once.
func (c *Converter) image(img *markdown.Image) notionapi.Blocks {
	if c.seen[img.Source] {
		return nil
	}
	c.seen[img.Source] = true

	var caption []notionapi.RichText
	if img.Caption != "" {
		caption = plainRichText(img.Caption)
	}
	block := &notionapi.ImageBlock{
		BasicBlock: basic(notionapi.BlockTypeImage),
		Image: notionapi.Image{
			Type:     notionapi.FileTypeExternal,
			External: &notionapi.FileObject{URL: img.Source},
			Caption:  caption,
		},
	}
	if !isRemoteURL(img.Source) {
		path := img.Source
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.baseDir, path)
		}
		c.pending = append(c.pending, &PendingImage{Block: block, Path: path, Line: img.Line})
	}
	return notionapi.Blocks{block}
}

// link renders video-host URLs as embeds; anything else becomes a
// bookmark captioned with the display text so plain references stay
// visually distinct and navigable.
func (c *Converter) link(l *markdown.Link) notionapi.Block {
	if c.isVideoURL(l.URL) {
		return &notionapi.EmbedBlock{
			BasicBlock: basic(notionapi.BlockTypeEmbed),
			Embed:      notionapi.Embed{URL: l.URL},
		}
	}
	caption := l.Display
	if caption == "" {
		caption = l.URL
	}
	return &notionapi.BookmarkBlock{
		BasicBlock: basic(notionapi.BlockTypeBookmark),
		Bookmark:   notionapi.Bookmark{URL: l.URL, Caption: plainRichText(caption)},
	}
}

func (c *Converter) table(t *markdown.Table) notionapi.Block {
	width := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}

	rows := notionapi.Blocks{c.tableRow(t.Header, width)}
	for _, row := range t.Rows {
		rows = append(rows, c.tableRow(row, width))
	}
	return &notionapi.TableBlock{
		BasicBlock: basic(notionapi.BlockType("table")),
		Table: notionapi.Table{
			TableWidth:      width,
			HasColumnHeader: true,
			Children:        rows,
		},
	}
}

func (c *Converter) tableRow(cells []markdown.TableCell, width int) notionapi.Block {
	out := make([][]notionapi.RichText, width)
	for i := 0; i < width; i++ {
		if i < len(cells) {
			out[i] = c.richText(cells[i].Inlines)
		}
		if len(out[i]) == 0 {
			out[i] = plainRichText("")
		}
	}
	return &notionapi.TableRowBlock{
		BasicBlock: basic(notionapi.BlockType("table_row")),
		TableRow:   notionapi.TableRow{Cells: out},
	}
}

func (c *Converter) isVideoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	for _, domain := range c.opts.VideoDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
