package distill

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/contentdistiller/internal/confidence"
	"github.com/hyperifyio/contentdistiller/internal/ensemble"
	"github.com/hyperifyio/contentdistiller/internal/extract"
	"github.com/hyperifyio/contentdistiller/internal/metadata"
	"github.com/hyperifyio/contentdistiller/internal/policy"
)

// PolicyEngine is the subset of policy.Engine's surface Distiller depends on,
// kept as an interface so tests can substitute a fake.
type PolicyEngine interface {
	ApplyPolicy(html string, url string, hint *policy.Hint) policy.Result
}

// Distiller wires the fetch-independent core pipeline: policy transforms,
// marketplace dispatch, concurrent extractor fan-out, ensemble selection, the
// completeness guard, node construction, and structured metadata/tables.
type Distiller struct {
	Extractors          []extract.Extractor
	MarketplaceAdapters []extract.MarketplaceAdapter
	Policy              PolicyEngine
	MaxConcurrentExtract int
}

const fallbackConfidence = 0.2

// Distill implements distill(html, baseURL, policyHint?) -> DistillationResult.
// It only errors for programmer-level failures; all domain-level failures
// (empty page, every extractor failing) return a well-formed, low-confidence
// Result instead.
func (d *Distiller) Distill(ctx context.Context, html []byte, baseURL string, hint *PolicyHint) (Result, error) {
	contentHash := sha256Hex(html)

	workingHTML := html
	var policyMeta map[string]any
	if d.Policy != nil {
		var ph *policy.Hint
		if hint != nil {
			ph = &policy.Hint{SkipSanitize: hint.SkipSanitize, AllowedTags: hint.AllowedTags}
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Warn().Interface("panic", r).Msg("distill: policy engine panicked, using unprocessed HTML")
				}
			}()
			pr := d.Policy.ApplyPolicy(string(html), baseURL, ph)
			if pr.TransformedHTML != "" {
				workingHTML = []byte(pr.TransformedHTML)
			}
			policyMeta = map[string]any{
				"policyApplied":   pr.PolicyApplied,
				"rulesMatched":    pr.RulesMatched,
				"fieldsValidated": pr.FieldsValidated,
			}
		}()
	}

	for _, adapter := range d.MarketplaceAdapters {
		if !adapter.CanHandle(baseURL) {
			continue
		}
		cand, err := adapter.Extract(workingHTML, baseURL)
		if err != nil {
			log.Warn().Err(err).Str("adapter", string(adapter.Name())).Msg("distill: marketplace adapter failed")
			continue
		}
		if cand == nil {
			continue
		}
		return d.finish(workingHTML, baseURL, contentHash, []extract.Candidate{*cand}, *cand, false, policyMeta), nil
	}

	candidates := d.runExtractors(ctx, workingHTML, baseURL)
	if len(candidates) == 0 {
		title, content, paras := extract.FallbackContent(workingHTML)
		fallback := extract.Candidate{
			Method:         extract.MethodFallback,
			Title:          title,
			Content:        content,
			ParagraphCount: paras,
			Confidence:     fallbackConfidence,
		}
		return d.finish(workingHTML, baseURL, contentHash, []extract.Candidate{fallback}, fallback, true, policyMeta), nil
	}

	selection := ensemble.SelectBest(candidates, baseURL)
	_, fallbackParas, _ := fallbackParagraphs(workingHTML)
	final := ensemble.ApplyCompletenessGuard(selection.Selected, candidates, fallbackParas)

	result := d.finish(workingHTML, baseURL, contentHash, candidates, final, false, policyMeta)
	result.Score = selection.Score
	result.Explanation = selection.Explanation
	return result, nil
}

func fallbackParagraphs(html []byte) (string, []string, int) {
	title, content, n := extract.FallbackContent(html)
	if content == "" {
		return title, nil, 0
	}
	return title, strings.Split(content, "\n\n"), n
}

// runExtractors dispatches every configured extractor concurrently,
// tolerating per-extractor failure by logging and skipping it.
func (d *Distiller) runExtractors(ctx context.Context, html []byte, baseURL string) []extract.Candidate {
	if len(d.Extractors) == 0 {
		return nil
	}
	results := make([]*extract.Candidate, len(d.Extractors))
	g, gctx := errgroup.WithContext(ctx)
	if d.MaxConcurrentExtract > 0 {
		g.SetLimit(d.MaxConcurrentExtract)
	}
	for i, ex := range d.Extractors {
		i, ex := i, ex
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			cand, err := ex.Extract(html, baseURL)
			if err != nil {
				log.Warn().Err(err).Str("extractor", string(ex.Name())).Msg("distill: extractor failed")
				return nil
			}
			results[i] = cand
			return nil
		})
	}
	_ = g.Wait() // per-extractor errors are already swallowed above

	out := make([]extract.Candidate, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (d *Distiller) finish(html []byte, baseURL, contentHash string, all []extract.Candidate, selected extract.Candidate, fallbackUsed bool, policyMeta map[string]any) Result {
	nodes := buildNodes(selected, baseURL, contentHash)
	contentText := selected.Content

	conf := confidence.ComputeFull(confidence.Input{Selected: selected, AllCandidates: all, SourceURL: baseURL})

	structured := metadata.Extract(html)
	tables := metadata.ExtractTables(html)

	return Result{
		Nodes:                nodes,
		ContentText:          contentText,
		ContentLength:        len(contentText),
		ContentHash:          contentHash,
		FallbackUsed:         fallbackUsed,
		ExtractionMethod:     selected.Method,
		ExtractionConfidence: conf.Overall,
		Confidence:           conf,
		PolicyMetadata:       policyMeta,
		StructuredMetadata:   &structured,
		Tables:               tables,
	}
}

// buildNodes maps a selected candidate's content into dense, ordered
// DistilledNodes, one per paragraph-sized block. Headings are recognized by a
// simple markdown-style '#' prefix left over from extractors that preserve
// heading markers; plain extractors produce only paragraph nodes.
func buildNodes(c extract.Candidate, baseURL, contentHash string) []Node {
	blocks := strings.Split(c.Content, "\n\n")
	nodes := make([]Node, 0, len(blocks))
	order := 0
	for _, b := range blocks {
		text := strings.TrimSpace(b)
		if text == "" {
			continue
		}
		nodeType := NodeParagraph
		if strings.HasPrefix(text, "#") {
			nodeType = NodeHeading
			text = strings.TrimSpace(strings.TrimLeft(text, "#"))
		}
		nodes = append(nodes, Node{
			ID:    fmt.Sprintf("%s-%d", contentHash[:12], order),
			Order: order,
			Type:  nodeType,
			Text:  text,
			SourceSpans: []SourceSpan{{
				URL:         baseURL,
				ContentHash: contentHash,
				ByteStart:   0,
				ByteEnd:     len(text),
			}},
		})
		order++
	}
	return nodes
}

func sha256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
