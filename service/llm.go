package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
)

// GenerateRequest describes one call to the text-generation capability
type GenerateRequest struct {
	System       string
	Prompt       string
	Temperature  float64
	JSONResponse bool // request a strict application/json response
}

// Generator is the black-box generation capability: given text and
// instructions, return text (or structured JSON matching a schema).
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Embedder produces a normalized query embedding for precedent retrieval
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

var (
	ErrGenerationFailed = errors.New("failed to generate content")
	ErrEmbeddingFailed  = errors.New("failed to generate embedding")
)

const (
	embeddingAPI   = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	generationAPI  = "https://generativelanguage.googleapis.com/v1beta/models/gemini-3-pro-preview:generateContent"
	maxRetries     = 3
	initialBackoff = time.Second
	maxPromptChars = 30000

	embeddingDimensions = 768
)

// GeminiGenerator calls the Gemini REST API directly. The genai client is
// kept for availability checks at boot; generation itself goes over HTTP so
// the request shape (temperature, JSON response MIME type) stays explicit.
type GeminiGenerator struct {
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiGenerator creates a generator bound to the given client
func NewGeminiGenerator(client *genai.Client, timeout time.Duration) *GeminiGenerator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiGenerator{client: client, timeout: timeout}
}

// Generate calls the generation API with retry and exponential backoff
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}
	if len(prompt) > maxPromptChars {
		log.Printf("Warning: Prompt too long (%d chars), truncating to %d chars", len(prompt), maxPromptChars)
		prompt = prompt[:maxPromptChars] + "\n\n[Content truncated due to length...]"
	}

	var content string
	var err error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		content, err = g.callGenerationAPI(ctx, prompt, req.Temperature, req.JSONResponse)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if attempt == maxRetries-1 {
				return "", fmt.Errorf("failed to generate content after %d attempts: %w", maxRetries, err)
			}
			continue
		}
		if content != "" {
			return content, nil
		}
	}

	return "", ErrGenerationFailed
}

// callGenerationAPI performs a single generateContent request
func (g *GeminiGenerator) callGenerationAPI(ctx context.Context, prompt string, temperature float64, jsonResponse bool) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	generationConfig := map[string]interface{}{
		"temperature": temperature,
	}
	if jsonResponse {
		generationConfig["responseMimeType"] = "application/json"
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": generationConfig,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, "POST", generationAPI, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	client := &http.Client{Timeout: g.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Printf("Gemini API error: Status %d, Body: %s", resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("API error: %d", resp.StatusCode)
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason,omitempty"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason,omitempty"`
		} `json:"promptFeedback,omitempty"`
		Error struct {
			Code    int    `json:"code,omitempty"`
			Message string `json:"message,omitempty"`
		} `json:"error,omitempty"`
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if apiResp.Error.Message != "" {
		return "", fmt.Errorf("API error: %s (code: %d)", apiResp.Error.Message, apiResp.Error.Code)
	}
	if apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("API blocked prompt: %s", apiResp.PromptFeedback.BlockReason)
	}
	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("API returned no candidates")
	}

	var out bytes.Buffer
	for i, candidate := range apiResp.Candidates {
		if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
			log.Printf("Warning: Candidate %d finished with reason: %s", i, candidate.FinishReason)
		}
		if len(candidate.Content.Parts) == 0 {
			return "", fmt.Errorf("API candidate has no parts (finish reason: %s)", candidate.FinishReason)
		}
		for _, part := range candidate.Content.Parts {
			out.WriteString(part.Text)
		}
	}

	result := out.String()
	if result == "" {
		return "", fmt.Errorf("API returned empty content")
	}
	return result, nil
}

// Embed generates a normalized 768-dimension embedding for a retrieval query
func (g *GeminiGenerator) Embed(ctx context.Context, text string) ([]float64, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := map[string]interface{}{
		"model": "models/gemini-embedding-001",
		"content": map[string]interface{}{
			"parts": []map[string]interface{}{
				{"text": text},
			},
		},
		"task_type":             "RETRIEVAL_QUERY",
		"output_dimensionality": embeddingDimensions,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		embedding, retryable, err := g.callEmbeddingAPI(ctx, apiKey, jsonData)
		if err == nil {
			return embedding, nil
		}
		if !retryable || attempt == maxRetries-1 {
			return nil, err
		}
	}

	return nil, ErrEmbeddingFailed
}

func (g *GeminiGenerator) callEmbeddingAPI(ctx context.Context, apiKey string, body []byte) ([]float64, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, "POST", embeddingAPI, bytes.NewBuffer(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	client := &http.Client{Timeout: g.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 400/401 never succeed on retry
		retryable := resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusUnauthorized
		return nil, retryable, fmt.Errorf("API error: %d", resp.StatusCode)
	}

	var apiResp struct {
		Embedding struct {
			Values []float64 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, true, fmt.Errorf("failed to decode response: %w", err)
	}

	embedding := apiResp.Embedding.Values
	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range embedding {
			embedding[i] /= norm
		}
	}
	return embedding, false, nil
}
