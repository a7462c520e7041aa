// Package llm implements schema.RoleInferrer against an OpenAI-compatible
// chat-completion endpoint. The model is treated as an opaque collaborator:
// headers in, strict JSON role map out. Malformed output is a hard failure,
// never silently ignored.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Continy/ShipTrackViz/internal/observability"
)

// defaultPrompt instructs the model to map raw headers to semantic roles.
// The reply must be a bare JSON object so it survives strict parsing.
const defaultPrompt = `You are given the ordered column headers of a vessel-track data file. ` +
	`Map each semantic role you can recognize to its 0-based column index. ` +
	`Recognized roles include "latitude", "longitude", "timestamp", plus sensor roles such as ` +
	`"speed", "heading", "true_wind_speed", "true_wind_direction", "fuel", "soc". ` +
	`Reply with a single JSON object mapping role name to column index, and nothing else. ` +
	`Omit roles you cannot identify. Headers: `

// Client asks a chat-completion model to map column headers to roles.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an inference client for an OpenAI-compatible API.
func NewClient(apiKey, model, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// InferRoles sends the header list to the model and parses the returned role
// map. Role names are lowercased; null or non-integer values are dropped.
func (c *Client) InferRoles(ctx context.Context, headers []string) (map[string]int, error) {
	headerJSON, err := json.Marshal(headers)
	if err != nil {
		return nil, fmt.Errorf("encode headers: %w", err)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: defaultPrompt + string(headerJSON)},
		},
		Temperature: 0.1,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.InferenceRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.InferenceRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("inference API error: status %d: %s", resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		c.metrics.InferenceRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		c.metrics.InferenceRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("inference response has no choices")
	}

	roles, err := parseRoleMap(chatResp.Choices[0].Message.Content)
	if err != nil {
		c.metrics.InferenceRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.InferenceRequests.WithLabelValues("success").Inc()
	return roles, nil
}

// parseRoleMap strictly parses the model's reply as a JSON role map. Code
// fences around the object are tolerated; anything else is an error.
func parseRoleMap(content string) (map[string]int, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw map[string]*int
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("malformed inference output: %w", err)
	}

	roles := make(map[string]int, len(raw))
	for role, idx := range raw {
		if idx == nil {
			continue
		}
		roles[strings.ToLower(strings.TrimSpace(role))] = *idx
	}
	return roles, nil
}

// Chat API wire types.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
