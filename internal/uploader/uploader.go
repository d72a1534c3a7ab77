// Package uploader drives a document from markdown file to created
// Notion pages: parse, normalize, convert, resolve images, paginate,
// upload.
package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jomei/notionapi"

	"github.com/mdpress/notionup/internal/diag"
	"github.com/mdpress/notionup/internal/frontmatter"
	"github.com/mdpress/notionup/internal/imghost"
	"github.com/mdpress/notionup/internal/markdown"
	"github.com/mdpress/notionup/internal/notion"
)

// PageCreator is the remote surface the uploader needs. *notion.Client
// satisfies it.
type PageCreator interface {
	CreatePage(ctx context.Context, title, abstract string, blocks notionapi.Blocks, parentID string) (*notion.CreatedPage, error)
}

// Uploader wires the conversion pipeline to the remote collaborators.
type Uploader struct {
	pages  PageCreator
	images imghost.Resolver
	opts   notion.Options
	quota  int
	strict bool
	log    *slog.Logger
}

func New(pages PageCreator, images imghost.Resolver, opts notion.Options, quota int, strictImages bool, log *slog.Logger) *Uploader {
	if quota <= 0 {
		quota = 100
	}
	return &Uploader{
		pages:  pages,
		images: images,
		opts:   opts,
		quota:  quota,
		strict: strictImages,
		log:    log,
	}
}

// Plan is the fully converted document before any remote write.
type Plan struct {
	Title    string
	Abstract string
	Pages    []notion.Page
	Warnings diag.Warnings
}

// Result reports the pages created by an upload.
type Result struct {
	Pages    []notion.CreatedPage
	Warnings diag.Warnings
}

// Prepare runs the local half of the pipeline: parse, normalize,
// convert, resolve images, paginate. It performs no Notion writes, so
// dry runs can stop here.
func (u *Uploader) Prepare(ctx context.Context, path string) (*Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	meta, body, err := frontmatter.Split(string(raw))
	if err != nil {
		return nil, fmt.Errorf("frontmatter in %s: %w", path, err)
	}

	blocks, warns := markdown.Parse(body)

	blocks, record, normWarns := markdown.Normalize(blocks)
	warns.Merge(normWarns)

	title := resolveTitle(meta, record, path)
	abstract := meta.Abstract()

	conv := notion.NewConverter(u.opts, filepath.Dir(path))
	out, pending, convWarns := conv.Convert(blocks)
	warns.Merge(convWarns)

	imgWarns, err := u.resolveImages(ctx, pending)
	warns.Merge(imgWarns)
	if err != nil {
		return nil, err
	}

	pages, pageWarns := notion.Paginate(title, abstract, out, u.quota)
	warns.Merge(pageWarns)

	// Surfaced at debug level so they show up under the verbose flag.
	for _, w := range warns {
		u.log.Debug("conversion warning", "kind", w.Kind, "line", w.Line, "detail", w.Detail)
	}

	return &Plan{Title: title, Abstract: abstract, Pages: pages, Warnings: warns}, nil
}

// Run prepares the document and uploads every planned page. Pages
// after the first are parented to the page created just before them,
// forming a linked chain.
func (u *Uploader) Run(ctx context.Context, path string) (*Result, error) {
	plan, err := u.Prepare(ctx, path)
	if err != nil {
		return nil, err
	}

	res := &Result{Warnings: plan.Warnings}
	parentID := ""
	for _, page := range plan.Pages {
		abstract := ""
		if page.Index == 0 {
			abstract = plan.Abstract
		}
		created, err := u.pages.CreatePage(ctx, page.Title, abstract, page.Blocks, parentID)
		if err != nil {
			return res, fmt.Errorf("upload page %d/%d: %w", page.Index+1, page.Total, err)
		}
		u.log.Info("page created", "title", page.Title, "page", page.Index+1, "of", page.Total, "url", created.URL)
		res.Pages = append(res.Pages, *created)
		parentID = created.ID
	}
	return res, nil
}

// resolveImages uploads local images concurrently and rewrites the
// pending blocks to their hosted URLs. Failures degrade to the local
// path with a warning unless strict mode is on.
func (u *Uploader) resolveImages(ctx context.Context, pending []*notion.PendingImage) (diag.Warnings, error) {
	if len(pending) == 0 {
		return nil, nil
	}
	if u.images == nil {
		var warns diag.Warnings
		for _, p := range pending {
			warns.Add(diag.ImageResolution, p.Line, "no image host configured for %s", p.Path)
		}
		if u.strict {
			return warns, fmt.Errorf("%d local image(s) but no image host configured", len(pending))
		}
		return warns, nil
	}

	var (
		mu    sync.Mutex
		warns diag.Warnings
		fatal error
		wg    sync.WaitGroup
	)
	for _, p := range pending {
		wg.Add(1)
		go func(p *notion.PendingImage) {
			defer wg.Done()
			hosted, err := u.images.Resolve(ctx, p.Path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warns.Add(diag.ImageResolution, p.Line, "upload %s: %v", p.Path, err)
				if u.strict && fatal == nil {
					fatal = fmt.Errorf("image upload failed for %s: %w", p.Path, err)
				}
				return
			}
			p.Block.Image.External.URL = hosted
		}(p)
	}
	wg.Wait()
	return warns, fatal
}

// resolveTitle prefers frontmatter, then an execution-record heading,
// then the file name.
func resolveTitle(meta frontmatter.Metadata, record *markdown.ExecutionRecord, path string) string {
	if t := meta.Title(); t != "" {
		return t
	}
	if record != nil {
		return record.Title()
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
