// Command openai-stub is a minimal OpenAI-compatible fixture server for
// exercising the ollama extraction method (internal/extract.OllamaExtractor)
// without a real model backend. It always answers chat completions with a
// JSON body shaped like the extractor expects: title/content/author/
// publishDate/excerpt.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		user := ""
		if len(req.Messages) >= 2 {
			user = req.Messages[1].Content
		}
		url := ""
		body := user
		if idx := strings.Index(user, "\n\n"); idx >= 0 {
			head := strings.TrimPrefix(user[:idx], "URL: ")
			url = strings.TrimSpace(head)
			body = user[idx+2:]
		}
		title := "Extracted page"
		if url != "" {
			title = "Extracted: " + url
		}
		excerpt := body
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		result := map[string]string{
			"title":       title,
			"content":     body,
			"author":      "",
			"publishDate": "",
			"excerpt":     excerpt,
		}
		content, _ := json.Marshal(result)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": string(content)}},
			},
		})
	})

	log.Printf("openai-stub listening on %s (model=%s)", addr, model)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
