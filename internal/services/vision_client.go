package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dealscout/backend/internal/config"
	"github.com/dealscout/backend/internal/logger"
)

// VisionClient reads the package quantity printed on a product image.
// Callers must treat a timeout, error, or non-numeric response as unknown.
type VisionClient interface {
	ExtractQuantityML(ctx context.Context, imageURL string) (*int, error)
}

type visionClient struct {
	log        *logger.Logger
	httpClient *http.Client

	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	appURL  string
}

func NewVisionClient(log *logger.Logger, cfg *config.Config) (VisionClient, error) {
	if cfg.VisionAPIKey == "" {
		return nil, fmt.Errorf("missing OPENROUTER_API_KEY")
	}
	timeout := cfg.VisionTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &visionClient{
		log:        log.With("service", "VisionClient"),
		httpClient: &http.Client{Timeout: timeout + 5*time.Second},
		baseURL:    strings.TrimRight(cfg.VisionBaseURL, "/"),
		apiKey:     cfg.VisionAPIKey,
		model:      cfg.VisionModel,
		timeout:    timeout,
		appURL:     cfg.AppURL,
	}, nil
}

const visionPrompt = `Read only the package size (quantity) visible on the product label.
Return JSON like: {"quantityMl": 1000}
- If the label says "1L" or "1 litre" => 1000
- "2L" => 2000
- "250 mL" => 250
- "6 x 200 mL" => 1200
If unsure, return {"quantityMl": null}. Respond with ONLY JSON.`

type visionChatRequest struct {
	Model          string              `json:"model"`
	Temperature    float64             `json:"temperature"`
	Messages       []visionChatMessage `json:"messages"`
	ResponseFormat map[string]string   `json:"response_format"`
}

type visionChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type visionChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *visionClient) ExtractQuantityML(ctx context.Context, imageURL string) (*int, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := visionChatRequest{
		Model:       c.model,
		Temperature: 0.0,
		Messages: []visionChatMessage{
			{Role: "system", Content: "You are a precise OCR assistant. Output strict JSON only."},
			{
				Role: "user",
				Content: []map[string]any{
					{"type": "text", "text": visionPrompt},
					{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
				},
			},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.appURL)
	req.Header.Set("X-Title", "Product Deals - Vision Grouping")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vision read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vision http %d: %s", resp.StatusCode, string(raw))
	}

	var decoded visionChatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("vision decode: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, nil
	}

	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		content = "{}"
	}

	var parsed struct {
		QuantityMl *json.Number `json:"quantityMl"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("vision model returned non-JSON content: %w", err)
	}
	if parsed.QuantityMl == nil {
		return nil, nil
	}
	f, err := parsed.QuantityMl.Float64()
	if err != nil {
		return nil, nil
	}
	n := int(f + 0.5)
	return &n, nil
}
