// Package collyfetcher implements crawler.Fetcher using gocolly and goquery.
package collyfetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/sitemap-crawler/internal/crawler"
)

// ErrUnsupportedContentType is returned when a response is not markup and the
// request did not ask to ignore the content type.
var ErrUnsupportedContentType = errors.New("unsupported content type")

const defaultMaxBodySize = 10 << 20

// Config controls collector behavior.
type Config struct {
	UserAgent   string
	MaxBodySize int
}

// Fetcher implements crawler.Fetcher. Every fetch runs on its own collector
// sharing one pooled transport, so per-request timeouts never race.
type Fetcher struct {
	cfg       Config
	transport http.RoundTripper
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}
	return &Fetcher{
		cfg:       cfg,
		transport: newHTTPTransport(),
	}
}

// Fetch performs a single GET and parses the body. The request itself is not
// interruptible; ctx is checked before it starts.
func (f *Fetcher) Fetch(ctx context.Context, request crawler.FetchRequest) (crawler.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("colly fetch canceled: %w", err)
	}
	var (
		doc      *document
		fetchErr error
	)
	collector := f.buildCollector(request)
	f.configureCollectorHooks(collector, request, &doc, &fetchErr)

	if err := collector.Visit(request.URL); err != nil {
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", request.URL, fetchErr)
		}
		return nil, fmt.Errorf("colly visit failed: %w", err)
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", request.URL, fetchErr)
	}
	if doc == nil {
		return nil, fmt.Errorf("fetch %s: no response", request.URL)
	}
	return doc, nil
}

func (f *Fetcher) buildCollector(request crawler.FetchRequest) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.MaxBodySize(f.cfg.MaxBodySize),
	}
	if f.cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(f.cfg.UserAgent))
	}
	collector := colly.NewCollector(opts...)
	collector.WithTransport(f.transport)
	collector.SetRequestTimeout(request.Timeout)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	request crawler.FetchRequest,
	doc **document,
	fetchErr *error,
) {
	hooks.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if !request.IgnoreContentType && !isMarkup(contentType) {
			*fetchErr = fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
			return
		}
		parsed, err := parseDocument(r.Request, r.Body)
		if err != nil {
			*fetchErr = err
			return
		}
		*doc = parsed
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

// isMarkup accepts the types an HTML parser can make sense of. A missing
// header is accepted.
func isMarkup(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") ||
		mediaType == "application/xml" ||
		strings.HasSuffix(mediaType, "+xml")
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
}

// document is a parsed page bound to the request it came from.
type document struct {
	dom     *goquery.Document
	request *colly.Request
	base    *url.URL
}

func parseDocument(request *colly.Request, body []byte) (*document, error) {
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	doc := &document{dom: dom, request: request}
	if href, ok := dom.Find("base[href]").First().Attr("href"); ok {
		if base, err := request.URL.Parse(strings.TrimSpace(href)); err == nil {
			doc.base = base
		}
	}
	return doc, nil
}

// Select implements crawler.Document.
func (d *document) Select(selector string) []crawler.Element {
	sel := d.dom.Find(selector)
	out := make([]crawler.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, element{sel: s, doc: d})
	})
	return out
}

type element struct {
	sel *goquery.Selection
	doc *document
}

// AbsURL implements crawler.Element. A <base href> replaces the page URL as
// the resolution base; fragments are kept either way.
func (e element) AbsURL(attr string) string {
	raw, ok := e.sel.Attr(attr)
	if !ok {
		return ""
	}
	resolver := e.doc.request
	if e.doc.base != nil {
		resolver = &colly.Request{URL: e.doc.base}
	}
	return resolver.AbsoluteURL(strings.TrimSpace(raw))
}
