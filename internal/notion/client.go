package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
)

// Client wraps the Notion API for page creation. Pages for one
// document must be created strictly in order: each continuation page
// is parented to the page before it, forming a linked chain.
type Client struct {
	api        *notionapi.Client
	databaseID notionapi.DatabaseID
}

// NewClient builds a client for the given integration token and
// target database.
func NewClient(token, databaseID string) *Client {
	return &Client{
		api:        notionapi.NewClient(notionapi.Token(token)),
		databaseID: notionapi.DatabaseID(databaseID),
	}
}

// CreatedPage identifies a page written by CreatePage.
type CreatedPage struct {
	ID  string
	URL string
}

// CreatePage writes one page. An empty parentID targets the database;
// otherwise the page nests under the given page ID.
func (c *Client) CreatePage(ctx context.Context, title, abstract string, blocks notionapi.Blocks, parentID string) (*CreatedPage, error) {
	parent := notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: c.databaseID}
	if parentID != "" {
		parent = notionapi.Parent{Type: notionapi.ParentTypePageID, PageID: notionapi.PageID(parentID)}
	}

	props := notionapi.Properties{
		"Title": notionapi.TitleProperty{
			Title: plainRichText(title),
		},
	}
	if abstract != "" {
		props["Memo"] = notionapi.RichTextProperty{
			RichText: plainRichText(abstract),
		}
	}

	req := &notionapi.PageCreateRequest{
		Parent:     parent,
		Properties: props,
		Children:   blocks,
	}

	var page *notionapi.Page
	var err error
	for attempt := 0; ; attempt++ {
		page, err = c.api.Page.Create(ctx, req)
		if err == nil {
			break
		}
		if attempt >= maxRetries || !isRetryable(err) {
			return nil, fmt.Errorf("create page %q: %w", title, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
	return &CreatedPage{ID: string(page.ID), URL: page.URL}, nil
}
