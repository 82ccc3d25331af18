package agentic

import (
	"context"
	"time"
)

// dismissSelectors is a curated list of common cookie/overlay containers;
// dismissOverlays looks for a clickable child inside one whose text matches
// dismissWords.
var dismissSelectors = []string{
	`[class*="cookie"]`, `[id*="cookie"]`,
	`[class*="consent"]`, `[id*="consent"]`,
	`[role="dialog"]`, `[class*="modal"]`, `[class*="overlay"]`,
}

var dismissWords = []string{"accept", "close", "dismiss", "got it", "agree", "ok"}

// showMoreSelectors are buttons/links commonly used to reveal truncated
// content.
var showMoreSelectors = []string{
	`button:has-text("Show more")`, `button:has-text("Read more")`,
	`a:has-text("Show more")`, `a:has-text("Read more")`,
	`[class*="show-more"]`, `[class*="read-more"]`,
}

var loadingIndicatorSelectors = []string{
	`[class*="spinner"]`, `[class*="loading"]`, `[aria-busy="true"]`,
}

var interferenceSelectors = []string{
	`header[class*="sticky"]`, `[class*="fixed-header"]`,
	`[class*="ad-container"]`, `[class*="advert"]`,
	`nav[class*="sticky"]`,
}

// scrollToGrow incrementally scrolls the page and reports whether
// document.scrollHeight grew as a result.
func scrollToGrow(ctx context.Context, page Page) (bool, error) {
	before, err := page.Evaluate(ctx, "document.body.scrollHeight")
	if err != nil {
		return false, err
	}
	if _, err := page.Evaluate(ctx, "window.scrollTo(0, document.body.scrollHeight)"); err != nil {
		return false, err
	}
	if err := page.WaitForTimeout(ctx, 500); err != nil {
		return false, err
	}
	after, err := page.Evaluate(ctx, "document.body.scrollHeight")
	if err != nil {
		return false, err
	}
	return asFloat(after) > asFloat(before), nil
}

// dismissOverlays clicks the first visible overlay control whose text
// matches a known dismiss word.
func dismissOverlays(ctx context.Context, page Page) (bool, error) {
	for _, sel := range dismissSelectors {
		loc := page.Locator(sel)
		visible, err := loc.IsVisible(ctx, 500)
		if err != nil || !visible {
			continue
		}
		for _, word := range dismissWords {
			btn := page.Locator(sel + ` :has-text("` + word + `")`)
			if ok, _ := btn.IsVisible(ctx, 300); ok {
				if err := btn.Click(ctx); err == nil {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// clickShowMore clicks the first visible "show more"/"read more" control.
func clickShowMore(ctx context.Context, page Page) (bool, error) {
	for _, sel := range showMoreSelectors {
		loc := page.Locator(sel)
		if ok, _ := loc.IsVisible(ctx, 500); ok {
			if err := loc.Click(ctx); err == nil {
				return true, nil
			}
		}
	}
	return false, nil
}

// waitForLoaders waits up to 5s for visible loading indicators to disappear.
func waitForLoaders(ctx context.Context, page Page) (bool, error) {
	deadline := time.Now().Add(5 * time.Second)
	sawOne := false
	for _, sel := range loadingIndicatorSelectors {
		for time.Now().Before(deadline) {
			visible, err := page.Locator(sel).IsVisible(ctx, 200)
			if err != nil || !visible {
				break
			}
			sawOne = true
			if err := page.WaitForTimeout(ctx, 200); err != nil {
				return sawOne, err
			}
		}
	}
	return sawOne, nil
}

// stripInterference removes fixed headers, ad containers, and sticky nav via
// a page-side script.
func stripInterference(ctx context.Context, page Page) (bool, error) {
	removed := 0
	for _, sel := range interferenceSelectors {
		result, err := page.Evaluate(ctx, `(() => {
			const els = document.querySelectorAll('`+sel+`');
			els.forEach(e => e.remove());
			return els.length;
		})()`)
		if err != nil {
			continue
		}
		removed += int(asFloat(result))
	}
	return removed > 0, nil
}

// alternateContainer reports whether the page has an <article>, <main> or
// [role=main] element with non-empty innerHTML. It does not change the
// extraction source: the next attempt distills the whole page content again,
// not that container's subtree.
func alternateContainer(ctx context.Context, page Page) (bool, error) {
	result, err := page.Evaluate(ctx, `(() => {
		const el = document.querySelector('article, main, [role="main"]');
		return el ? el.innerHTML.length : 0;
	})()`)
	if err != nil {
		return false, err
	}
	return asFloat(result) > 0, nil
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
