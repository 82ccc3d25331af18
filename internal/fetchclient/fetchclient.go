// Package fetchclient adapts the teacher's conditional-GET HTTP client into
// the FetchClient external interface: Fetch({url, useCache, mode}) ->
// FetchResult. Rendered-mode fetches are delegated to an injected Page
// (the headless-browser runtime itself is out of scope).
package fetchclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hyperifyio/contentdistiller/internal/agentic"
	"github.com/hyperifyio/contentdistiller/internal/fetch"
	"github.com/hyperifyio/contentdistiller/internal/robots"
)

// Mode selects between a plain HTTP GET and a rendered (JS-executed) fetch.
type Mode string

const (
	ModeHTTP     Mode = "http"
	ModeRendered Mode = "rendered"
)

// Request is the Fetch() argument bundle.
type Request struct {
	URL      string
	UseCache bool
	Mode     Mode
}

// Result is the FetchResult entity: finalURL is always absolute and
// canonicalized.
type Result struct {
	Body         []byte
	FinalURL     string
	Status       int
	FromCache    bool
	ETag         string
	LastModified string
}

// Client is the FetchClient implementation. Robots is optional; when set and
// RespectRobots is true, Fetch consults it before issuing a request and
// refuses disallowed paths.
type Client struct {
	HTTP          *fetch.Client
	Robots        *robots.Manager
	RobotsUA      string
	RespectRobots bool
	// PageFactory opens a browser page for rendered-mode fetches. Required
	// only if callers ever request ModeRendered.
	PageFactory func(ctx context.Context) (agentic.Page, error)
}

// Fetch retrieves url per req.Mode. In rendered mode it opens a page via
// PageFactory, navigates, and returns the rendered document's HTML; the
// circuit of concerns here matches the AgenticExtractor's Page contract.
func (c *Client) Fetch(ctx context.Context, req Request) (Result, error) {
	canonical, err := canonicalize(req.URL)
	if err != nil {
		return Result{}, fmt.Errorf("fetchclient: %w", err)
	}

	if c.RespectRobots && c.Robots != nil {
		u, _ := url.Parse(canonical)
		robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
		rules, _, err := c.Robots.Get(ctx, robotsURL)
		if err == nil && !robots.Allowed(rules, c.RobotsUA, u.Path) {
			return Result{}, fmt.Errorf("fetchclient: disallowed by robots.txt: %s", canonical)
		}
	}

	if req.Mode == ModeRendered {
		return c.fetchRendered(ctx, canonical)
	}
	return c.fetchHTTP(ctx, canonical, req.UseCache)
}

func (c *Client) fetchHTTP(ctx context.Context, canonical string, useCache bool) (Result, error) {
	if c.HTTP == nil {
		return Result{}, fmt.Errorf("fetchclient: no HTTP client configured")
	}
	bypass := c.HTTP.BypassCache
	c.HTTP.BypassCache = !useCache
	body, contentType, err := c.HTTP.Get(ctx, canonical)
	c.HTTP.BypassCache = bypass
	if err != nil {
		return Result{}, err
	}
	_ = contentType
	return Result{Body: body, FinalURL: canonical, Status: 200, FromCache: false}, nil
}

func (c *Client) fetchRendered(ctx context.Context, canonical string) (Result, error) {
	if c.PageFactory == nil {
		return Result{}, fmt.Errorf("fetchclient: rendered mode requested but no PageFactory configured")
	}
	page, err := c.PageFactory(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetchclient: open page: %w", err)
	}
	if err := page.Goto(ctx, canonical, "networkidle"); err != nil {
		return Result{}, fmt.Errorf("fetchclient: goto: %w", err)
	}
	html, err := page.Content(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetchclient: content: %w", err)
	}
	return Result{Body: []byte(html), FinalURL: page.URL(), Status: 200, FromCache: false}, nil
}

// canonicalize drops the fragment, lowercases the host, and strips the
// default port, matching the FinalURL invariant in the data model.
func canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %q", u.Scheme)
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}
	return u.String(), nil
}
