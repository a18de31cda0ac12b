package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"

	"match-service/internal/models"
)

// Request is the payload sent to the text-generation service.
type Request struct {
	UserSkills    []string `json:"user_skills"`
	PartnerSkills []string `json:"partner_skills"`
	PartnerName   string   `json:"partner_name"`
	Language      string   `json:"language"`
}

// Result is the enriched conversational material coming back.
type Result struct {
	Icebreaker   string   `json:"icebreaker"`
	Topics       []string `json:"topics"`
	SharedSkills []string `json:"shared_skills"`
}

// Generator produces enriched icebreakers and topics for a pairing.
type Generator interface {
	Enrich(ctx context.Context, req Request) (*Result, error)
}

// Client calls the external text-generation service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client. The timeout bounds the whole call so a
// slow collaborator can never hold up a reveal.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enrich posts the pairing to the generation service. Callers must
// treat any error as non-fatal and keep the locally generated prompts.
func (c *Client) Enrich(ctx context.Context, req Request) (*Result, error) {
	ctx, span := otel.Tracer("match-service/enrich").Start(ctx, "enrich.generate")
	defer span.End()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal enrich request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/icebreakers", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build enrich request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call enrich service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrich service returned %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode enrich response: %w", err)
	}
	if result.Icebreaker == "" || len(result.Topics) != 3 {
		return nil, fmt.Errorf("malformed enrich response: icebreaker=%q topics=%d", result.Icebreaker, len(result.Topics))
	}
	return &result, nil
}

// Apply overlays the enriched prompts onto a compatibility result.
// Only the presentation fields change; score, location and unique
// skill lists stay authoritative from the scorer.
func Apply(result models.CompatibilityResult, enriched *Result) models.CompatibilityResult {
	if enriched == nil {
		return result
	}
	result.Icebreaker = enriched.Icebreaker
	result.Topics = enriched.Topics
	return result
}
