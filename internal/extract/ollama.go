package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/contentdistiller/internal/budget"
	"github.com/hyperifyio/contentdistiller/internal/cache"
	"github.com/hyperifyio/contentdistiller/internal/llm"
)

// OllamaExtractor asks an OpenAI-compatible chat model (typically a local
// Ollama instance) to return the article's title, body, and any metadata it
// can find, as JSON. Prompts are truncated to the model's context window
// using the same token estimator the teacher codebase uses for its synthesis
// budget, and responses are cached by (model, prompt) digest so repeat calls
// on the same page don't re-hit the model.
type OllamaExtractor struct {
	Client llm.Client
	Model  string
	Cache  *cache.LLMCache
	Prompt string // optional system prompt override
}

const defaultOllamaSystemPrompt = `You extract the main readable content from a web page. ` +
	`Given the page's visible text, reply with compact JSON: ` +
	`{"title":"...","content":"...","author":"","publishDate":"","excerpt":""}. ` +
	`content must be the article body only, stripped of navigation and ads.`

type ollamaResponse struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Author      string `json:"author"`
	PublishDate string `json:"publishDate"`
	Excerpt     string `json:"excerpt"`
}

func (e OllamaExtractor) Name() Method { return MethodOllama }

func (e OllamaExtractor) Extract(htmlBytes []byte, baseURL string) (*Candidate, error) {
	if e.Client == nil {
		return nil, fmt.Errorf("ollama extractor: no client configured")
	}
	doc := FromHTML(htmlBytes)
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}

	system := e.Prompt
	if system == "" {
		system = defaultOllamaSystemPrompt
	}
	model := e.Model
	if model == "" {
		model = "gpt-oss-20b"
	}

	userBody := truncateToBudget(model, system, doc.Text)
	user := fmt.Sprintf("URL: %s\n\n%s", baseURL, userBody)

	if e.Cache != nil {
		key := cache.KeyFrom(model, system+"\n\n"+user)
		if raw, ok, _ := e.Cache.Get(context.Background(), key); ok {
			var parsed ollamaResponse
			if json.Unmarshal(raw, &parsed) == nil {
				return candidateFromOllama(parsed), nil
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	resp, err := e.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ollama extractor: empty response")
	}
	raw := extractJSONObject(resp.Choices[0].Message.Content)
	var parsed ollamaResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("ollama extractor: parse response: %w", err)
	}
	if e.Cache != nil {
		key := cache.KeyFrom(model, system+"\n\n"+user)
		_ = e.Cache.Save(context.Background(), key, []byte(raw))
	}
	return candidateFromOllama(parsed), nil
}

func candidateFromOllama(parsed ollamaResponse) *Candidate {
	content := strings.TrimSpace(parsed.Content)
	if content == "" {
		return nil
	}
	return &Candidate{
		Method:         MethodOllama,
		Title:          strings.TrimSpace(parsed.Title),
		Content:        content,
		ParagraphCount: paragraphCount(content),
		Confidence:     0.7,
		Metadata: Metadata{
			Author:      parsed.Author,
			PublishDate: parsed.PublishDate,
			Excerpt:     parsed.Excerpt,
		},
	}
}

// truncateToBudget trims text so that system+user prompt tokens stay within
// the model's context window, leaving headroom for the model's own output.
func truncateToBudget(model, system, text string) string {
	reserved := 1024
	maxInputTokens := budget.RemainingContextWithHeadroom(model, reserved, budget.EstimateTokens(system))
	maxChars := maxInputTokens * 4
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

// extractJSONObject returns s from its first '{' through its last '}',
// tolerating models that wrap JSON in prose or code fences. Braces are not
// balanced, so text between two separate objects is included.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
