// Package collect gathers analysis source material from local files, web
// pages, and issue tracker tickets into a single text bundle. Collection
// is best effort: an unreadable source is recorded inline with an error
// marker instead of failing the whole bundle.
package collect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// emptyBundleText is returned when no source produced any content.
const emptyBundleText = "No source data available for analysis."

// defaultConcurrency bounds parallel remote fetches.
const defaultConcurrency = 4

// URLReader fetches readable text for a web page.
type URLReader interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// TicketReader fetches a rendered issue tracker ticket.
type TicketReader interface {
	Fetch(ctx context.Context, id string) (string, error)
}

// Request names the sources to collect.
type Request struct {
	Files   []string
	URLs    []string
	Tickets []string
}

// Counts tallies the requested sources by kind.
type Counts struct {
	Files   int `json:"files"`
	URLs    int `json:"urls"`
	Tickets int `json:"tickets"`
}

// Bundle is the combined source material for one analysis.
type Bundle struct {
	// Text holds every source under a "## File:", "## URL:", or
	// "## Ticket:" header, in request order. Sources that failed carry an
	// "(ERROR)" marker in their header.
	Text string
	// Sources lists every requested source for the sources_used field.
	Sources []string
	Counts  Counts
	// Failed counts sources that could not be read.
	Failed int
}

// Collector reads the three source kinds. Web and ticket readers are
// optional; a nil reader turns the corresponding sources into errors.
type Collector struct {
	web           URLReader
	tickets       TicketReader
	maxConcurrent int
}

// NewCollector builds a collector. Either reader may be nil when that
// source kind is not configured.
func NewCollector(web URLReader, tickets TicketReader) *Collector {
	return &Collector{
		web:           web,
		tickets:       tickets,
		maxConcurrent: defaultConcurrency,
	}
}

// Collect gathers all requested sources. Local files are read inline;
// URLs and tickets are fetched concurrently with a bounded limit. Output
// order always matches request order. The only error returned is context
// cancellation; per-source failures are recorded in the bundle.
func (c *Collector) Collect(ctx context.Context, req Request) (*Bundle, error) {
	b := &Bundle{
		Counts: Counts{
			Files:   len(req.Files),
			URLs:    len(req.URLs),
			Tickets: len(req.Tickets),
		},
	}

	fileParts := make([]string, len(req.Files))
	urlParts := make([]string, len(req.URLs))
	ticketParts := make([]string, len(req.Tickets))

	var mu sync.Mutex
	failed := 0
	fail := func() {
		mu.Lock()
		failed++
		mu.Unlock()
	}

	for i, path := range req.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			zap.L().Warn("collect: file unreadable",
				zap.String("path", path),
				zap.Error(err),
			)
			fileParts[i] = errorPart("File", path, err)
			failed++
			continue
		}
		fileParts[i] = fmt.Sprintf("## File: %s\n%s\n", path, string(data))
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)

	for i, u := range req.URLs {
		g.Go(func() error {
			content, err := c.fetchURL(gCtx, u)
			if err != nil {
				zap.L().Warn("collect: url fetch failed",
					zap.String("url", u),
					zap.Error(err),
				)
				urlParts[i] = errorPart("URL", u, err)
				fail()
				return nil
			}
			urlParts[i] = fmt.Sprintf("## URL: %s\n%s\n", u, content)
			return nil
		})
	}

	for i, id := range req.Tickets {
		g.Go(func() error {
			content, err := c.fetchTicket(gCtx, id)
			if err != nil {
				zap.L().Warn("collect: ticket fetch failed",
					zap.String("ticket", id),
					zap.Error(err),
				)
				ticketParts[i] = errorPart("Ticket", id, err)
				fail()
				return nil
			}
			ticketParts[i] = fmt.Sprintf("## Ticket: %s\n%s\n", id, content)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.Failed = failed

	var parts []string
	parts = append(parts, fileParts...)
	parts = append(parts, urlParts...)
	parts = append(parts, ticketParts...)

	b.Text = strings.Join(parts, "\n")
	if strings.TrimSpace(b.Text) == "" {
		b.Text = emptyBundleText
	}

	b.Sources = SourceList(req)
	return b, nil
}

func (c *Collector) fetchURL(ctx context.Context, u string) (string, error) {
	if c.web == nil {
		return "", eris.New("collect: no web reader configured")
	}
	return c.web.Fetch(ctx, u)
}

func (c *Collector) fetchTicket(ctx context.Context, id string) (string, error) {
	if c.tickets == nil {
		return "", eris.New("collect: no ticket reader configured")
	}
	return c.tickets.Fetch(ctx, id)
}

func errorPart(kind, name string, err error) string {
	return fmt.Sprintf("## %s: %s (ERROR)\nFailed to read: %v\n", kind, name, err)
}

// SourceList renders the sources_used entries for a request: file base
// names, full URLs, and ticket IDs, in that order.
func SourceList(req Request) []string {
	sources := make([]string, 0, len(req.Files)+len(req.URLs)+len(req.Tickets))
	for _, f := range req.Files {
		sources = append(sources, "File: "+filepath.Base(f))
	}
	for _, u := range req.URLs {
		sources = append(sources, "URL: "+u)
	}
	for _, t := range req.Tickets {
		sources = append(sources, "Ticket: "+t)
	}
	return sources
}
