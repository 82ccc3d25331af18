package agentic

import "context"

// Page is the Browser Page external interface: the minimal capability set
// AgenticExtractor needs from a live, JS-rendered page. A concrete
// implementation would wrap a headless-browser driver; that driver itself is
// out of scope here; tests and callers without a live browser provide fakes.
type Page interface {
	URL() string
	Content(ctx context.Context) (string, error)
	Goto(ctx context.Context, url string, waitUntil string) error
	Evaluate(ctx context.Context, expr string, args ...any) (any, error)
	WaitForTimeout(ctx context.Context, ms int) error
	WaitForSelector(ctx context.Context, selector string, state string, timeoutMs int) error
	Locator(selector string) Locator
}

// Locator is a handle to zero-or-more elements matched by a selector,
// resolved lazily by the Page implementation when an action is invoked.
type Locator interface {
	IsVisible(ctx context.Context, timeoutMs int) (bool, error)
	Click(ctx context.Context) error
	Fill(ctx context.Context, value string) error
	Type(ctx context.Context, value string) error
}
