package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hyperifyio/contentdistiller/internal/distill"
)

// writeResultArtifacts renders a DistillationResult to cfg.OutputPath as
// Markdown with a SHA256 sidecar for the Markdown, writes a JSON sidecar
// (<output>.json) carrying the full result including confidence breakdown
// and source spans, and — when OutputPDFPath is set — a PDF rendering of the
// Markdown via the same pipeline the teacher uses for its report export.
func writeResultArtifacts(cfg Config, result distill.Result) error {
	md := renderMarkdown(result)
	if err := os.WriteFile(cfg.OutputPath, []byte(md), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := writeSHA256Sidecar(cfg.OutputPath, []byte(md)); err != nil {
		return fmt.Errorf("write sha256 sidecar: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	sidecarPath := cfg.OutputPath + ".json"
	if err := os.WriteFile(sidecarPath, jsonBytes, 0o644); err != nil {
		return fmt.Errorf("write json sidecar: %w", err)
	}

	if cfg.OutputPDFPath != "" {
		if err := writeSimplePDF(md, cfg.OutputPDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	}
	return nil
}

// renderMarkdown turns a DistillationResult's nodes into a Markdown document
// plus a reproducibility footer naming the extraction method and confidence.
func renderMarkdown(result distill.Result) string {
	var b strings.Builder
	for _, n := range result.Nodes {
		switch n.Type {
		case distill.NodeHeading:
			b.WriteString("## ")
			b.WriteString(n.Text)
			b.WriteString("\n\n")
		default:
			b.WriteString(n.Text)
			b.WriteString("\n\n")
		}
	}
	if result.FallbackUsed {
		b.WriteString("> Note: extraction fell back to raw paragraph text; confidence is low.\n\n")
	}
	b.WriteString("---\n")
	b.WriteString("Extraction method: ")
	b.WriteString(string(result.ExtractionMethod))
	b.WriteString("\n")
	b.WriteString("Confidence: ")
	b.WriteString(strconv.FormatFloat(result.ExtractionConfidence, 'f', 3, 64))
	b.WriteString("\n")
	if result.Explanation != "" {
		b.WriteString(result.Explanation)
		b.WriteString("\n")
	}
	return b.String()
}

func writeSHA256Sidecar(path string, content []byte) error {
	sum := sha256.Sum256(content)
	line := hex.EncodeToString(sum[:]) + "  " + filenameOnly(path) + "\n"
	return os.WriteFile(path+".sha256", []byte(line), 0o644)
}

func filenameOnly(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
