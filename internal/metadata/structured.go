// Package metadata extracts structured page metadata (JSON-LD, OpenGraph,
// Twitter Card, microdata) and simple tables from a fresh DOM parse, since
// the extraction pass itself may have already mutated or discarded the DOM.
package metadata

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Structured holds whatever structured metadata could be recovered. All
// fields are best-effort and may be empty.
type Structured struct {
	JSONLD      []map[string]any `json:"jsonLd,omitempty"`
	OpenGraph   map[string]string `json:"openGraph,omitempty"`
	TwitterCard map[string]string `json:"twitterCard,omitempty"`
	Microdata   []map[string]string `json:"microdata,omitempty"`
}

// Extract recovers structured metadata from a fresh parse of htmlBytes.
// Parsing or per-source failures never abort the call; they simply leave the
// corresponding field empty.
func Extract(htmlBytes []byte) Structured {
	var out Structured
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return out
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(s.Text()), &obj); err == nil {
			out.JSONLD = append(out.JSONLD, obj)
		}
	})

	og := map[string]string{}
	doc.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		prop := strings.TrimPrefix(s.AttrOr("property", ""), "og:")
		if prop == "" {
			return
		}
		og[prop] = s.AttrOr("content", "")
	})
	if len(og) > 0 {
		out.OpenGraph = og
	}

	tc := map[string]string{}
	doc.Find(`meta[name^="twitter:"]`).Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimPrefix(s.AttrOr("name", ""), "twitter:")
		if name == "" {
			return
		}
		tc[name] = s.AttrOr("content", "")
	})
	if len(tc) > 0 {
		out.TwitterCard = tc
	}

	doc.Find(`[itemscope]`).Each(func(_ int, s *goquery.Selection) {
		item := map[string]string{}
		if t := s.AttrOr("itemtype", ""); t != "" {
			item["itemtype"] = t
		}
		s.Find(`[itemprop]`).Each(func(_ int, p *goquery.Selection) {
			name := p.AttrOr("itemprop", "")
			if name == "" {
				return
			}
			if v, ok := p.Attr("content"); ok {
				item[name] = v
			} else {
				item[name] = strings.TrimSpace(p.Text())
			}
		})
		if len(item) > 0 {
			out.Microdata = append(out.Microdata, item)
		}
	})

	return out
}
