package notion

import (
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/mdpress/notionup/internal/diag"
)

// Page is one planned remote write: an ordered slice of blocks that
// fits the destination quota, plus its position in the sequence.
// Pages are planning artifacts; they are not persisted.
type Page struct {
	Title  string
	Blocks notionapi.Blocks
	Index  int // zero-based sequence position
	Total  int // assigned after planning
}

// Paginate partitions blocks into pages of at most quota blocks,
// counting a container and its descendants together and never
// splitting a subtree across pages. A single subtree larger than the
// quota goes on a page of its own, exceeding the quota for that page
// only, with a warning. Order is preserved exactly.
//
// The first page is prefixed with the metadata summary when abstract
// is non-empty; every later page opens with a continuation marker.
// Prefix blocks count against the quota.
func Paginate(title, abstract string, blocks notionapi.Blocks, quota int) ([]Page, diag.Warnings) {
	var warns diag.Warnings
	if quota <= 1 {
		quota = 2
	}

	// Reserve the prefix slot up front so no page overflows once
	// markers are inserted.
	capacityFor := func(pageIdx int) int {
		if pageIdx == 0 {
			if abstract != "" {
				return quota - 1
			}
			return quota
		}
		return quota - 1
	}

	var pages []Page
	var cur notionapi.Blocks
	count := 0

	flush := func() {
		if len(cur) > 0 {
			pages = append(pages, Page{Blocks: cur, Index: len(pages)})
			cur = nil
			count = 0
		}
	}

	for _, b := range blocks {
		weight := blockWeight(b)
		if weight > capacityFor(len(pages)) && count == 0 {
			// Unsplittable subtree: alone on its own page.
			warns.Add(diag.PageQuotaExceeded, 0,
				"container subtree of %d blocks exceeds the %d-block page quota; placed on its own page", weight, quota)
			cur = notionapi.Blocks{b}
			flush()
			continue
		}
		if count+weight > capacityFor(len(pages)) {
			flush()
			if weight > capacityFor(len(pages)) {
				warns.Add(diag.PageQuotaExceeded, 0,
					"container subtree of %d blocks exceeds the %d-block page quota; placed on its own page", weight, quota)
				cur = notionapi.Blocks{b}
				flush()
				continue
			}
		}
		cur = append(cur, b)
		count += weight
	}
	flush()

	if len(pages) == 0 {
		pages = append(pages, Page{Index: 0})
	}

	total := len(pages)
	for i := range pages {
		pages[i].Total = total
		pages[i].Title = title
		if i == 0 {
			if abstract != "" {
				pages[i].Blocks = append(notionapi.Blocks{summaryBlock(abstract)}, pages[i].Blocks...)
			}
			continue
		}
		pages[i].Title = fmt.Sprintf("%s (%d/%d)", title, i+1, total)
		pages[i].Blocks = append(notionapi.Blocks{continuationMarker(i+1, total)}, pages[i].Blocks...)
	}
	return pages, warns
}

// summaryBlock renders the document abstract at the top of page one.
func summaryBlock(abstract string) notionapi.Block {
	return &notionapi.QuoteBlock{
		BasicBlock: basic(notionapi.BlockType("quote")),
		Quote:      notionapi.Quote{RichText: plainRichText(abstract)},
	}
}

// continuationMarker is the lightweight block opening each split-off
// page with its place in the sequence.
func continuationMarker(pageNo, total int) notionapi.Block {
	emoji := notionapi.Emoji("📑")
	return &notionapi.CalloutBlock{
		BasicBlock: basic(notionapi.BlockType("callout")),
		Callout: notionapi.Callout{
			RichText: plainRichText(fmt.Sprintf("Continued (%d/%d)", pageNo, total)),
			Icon:     &notionapi.Icon{Type: "emoji", Emoji: &emoji},
			Color:    "gray_background",
		},
	}
}

// blockWeight counts a block plus all of its descendants, the unit the
// destination's quota is measured in.
func blockWeight(b notionapi.Block) int {
	n := 1
	for _, child := range childrenOf(b) {
		n += blockWeight(child)
	}
	return n
}

func childrenOf(b notionapi.Block) notionapi.Blocks {
	switch n := b.(type) {
	case *notionapi.ParagraphBlock:
		return n.Paragraph.Children
	case *notionapi.BulletedListItemBlock:
		return n.BulletedListItem.Children
	case *notionapi.NumberedListItemBlock:
		return n.NumberedListItem.Children
	case *notionapi.ToDoBlock:
		return n.ToDo.Children
	case *notionapi.QuoteBlock:
		return n.Quote.Children
	case *notionapi.CalloutBlock:
		return n.Callout.Children
	case *notionapi.TableBlock:
		return n.Table.Children
	}
	return nil
}
