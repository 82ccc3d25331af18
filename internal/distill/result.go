// Package distill orchestrates FetchClient output through the extraction
// ensemble and confidence scorer to produce a DistillationResult: policy
// transforms, marketplace dispatch, concurrent extractor fan-out, ensemble
// selection, the completeness guard, node construction, and structured
// metadata/table extraction.
package distill

import (
	"github.com/hyperifyio/contentdistiller/internal/confidence"
	"github.com/hyperifyio/contentdistiller/internal/ensemble"
	"github.com/hyperifyio/contentdistiller/internal/extract"
	"github.com/hyperifyio/contentdistiller/internal/metadata"
)

// NodeType discriminates DistilledNode.Type.
type NodeType string

const (
	NodeParagraph NodeType = "paragraph"
	NodeHeading   NodeType = "heading"
)

// SourceSpan locates a piece of distilled text within the original HTML.
type SourceSpan struct {
	URL         string `json:"url"`
	Timestamp   int64  `json:"timestamp"`
	ContentHash string `json:"contentHash"`
	ByteStart   int    `json:"byteStart"`
	ByteEnd     int    `json:"byteEnd"`
	Selector    string `json:"selector,omitempty"`
}

// Node is the DistilledNode entity. Order is dense and starts at 0.
type Node struct {
	ID          string       `json:"id"`
	Order       int          `json:"order"`
	Type        NodeType     `json:"type"`
	Text        string       `json:"text"`
	SourceSpans []SourceSpan `json:"sourceSpans,omitempty"`
}

// PolicyHint narrows how the Policy Engine transforms HTML before
// extraction; nil means use the engine's defaults.
type PolicyHint struct {
	SkipSanitize bool
	AllowedTags  []string
}

// Result is the DistillationResult entity.
type Result struct {
	Nodes                []Node                 `json:"nodes"`
	ContentText          string                  `json:"contentText"`
	ContentLength        int                     `json:"contentLength"`
	ContentHash          string                  `json:"contentHash"`
	FallbackUsed         bool                    `json:"fallbackUsed"`
	ExtractionMethod     extract.Method          `json:"extractionMethod"`
	ExtractionConfidence float64                 `json:"extractionConfidence"`
	Confidence           confidence.Breakdown    `json:"confidenceBreakdown"`
	Score                ensemble.Score          `json:"score"`
	Explanation          string                  `json:"explanation"`
	PolicyMetadata       map[string]any          `json:"policyMetadata,omitempty"`
	StructuredMetadata   *metadata.Structured    `json:"structuredMetadata,omitempty"`
	Tables               []metadata.Table        `json:"tables,omitempty"`
}
