package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-enrich/internal/model"
	"github.com/sells-group/domain-enrich/pkg/openrouter"
	"github.com/sells-group/domain-enrich/pkg/searxng"
)

const (
	// maxAdjudicationHits bounds the prompt context.
	maxAdjudicationHits = 25
	// maxHitContentLen truncates each hit's content snippet.
	maxHitContentLen = 400

	adjudicationTemperature = 0.1
	adjudicationMaxTokens   = 500
)

// ErrUnparseable marks adjudicator output that is not the expected JSON
// shape.
var ErrUnparseable = eris.New("enrich: unparseable adjudicator response")

// Adjudication is the structured verdict returned by the language model.
type Adjudication struct {
	PrimaryDomain      string   `json:"primary_domain"`
	ConfidenceScore    float64  `json:"confidence_score"`
	Reasoning          string   `json:"reasoning"`
	AlternativeDomains []string `json:"alternative_domains"`
}

// Adjudicator selects a primary domain from aggregated search hits.
type Adjudicator interface {
	Adjudicate(ctx context.Context, req model.EnrichmentRequest, hits []searxng.Result) (*Adjudication, error)
	// Model identifies the underlying language model for result metadata.
	Model() string
}

// promptHit is the trimmed view of a search hit embedded in the prompt.
type promptHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// buildPrompt renders the adjudication prompt from the request and hits.
// Hits beyond maxAdjudicationHits are dropped and content snippets
// truncated to keep the context bounded.
func buildPrompt(req model.EnrichmentRequest, hits []searxng.Result) (string, error) {
	if len(hits) > maxAdjudicationHits {
		hits = hits[:maxAdjudicationHits]
	}

	formatted := make([]promptHit, len(hits))
	for i, h := range hits {
		content := h.Content
		if len(content) > maxHitContentLen {
			content = content[:maxHitContentLen]
		}
		formatted[i] = promptHit{Title: h.Title, URL: h.URL, Content: content}
	}

	hitsJSON, err := json.MarshalIndent(formatted, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "enrich: marshal prompt hits")
	}

	return fmt.Sprintf(`You are an expert AI assistant specialized in company research and domain identification.

TASK: Analyze search results to find the PRIMARY business website domain.

Company: %s
Address: %s, %s %s

Search Results (analyze all thoroughly):
%s

ANALYSIS REQUIREMENTS:
1. Identify the most likely PRIMARY business domain (not social media, news, or subsidiaries)
2. Look for official corporate websites matching company name AND location
3. Avoid regional subsidiaries unless clearly the primary entity
4. Consider domain authority, relevance, and geographic alignment
5. Be especially careful with common company names (e.g., distinguish "ABB" electronics vs "ABB" bank)

REASONING PROCESS:
- First, eliminate obviously irrelevant results
- Then, identify potential official domains
- Cross-reference company name variations with location
- Validate domain relevance to the specific company/address provided

Return ONLY a JSON object with this exact format:
{
  "primary_domain": "example.com" or null,
  "confidence_score": 0.0-1.0,
  "reasoning": "Detailed explanation of selection process",
  "alternative_domains": ["other.com", "another.com"]
}

Be conservative - if uncertain, return null for primary_domain rather than guessing.`,
		req.CompanyName, req.Address.City, req.Address.State, req.Address.Zip, string(hitsJSON)), nil
}

// parseAdjudication decodes the model's JSON verdict, tolerating fenced
// code blocks around the object.
func parseAdjudication(content string) (*Adjudication, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var verdict Adjudication
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return nil, ErrUnparseable
	}
	return &verdict, nil
}

// openRouterAdjudicator adjudicates via the OpenRouter chat-completion API.
type openRouterAdjudicator struct {
	client openrouter.Client
	model  string
}

// NewOpenRouterAdjudicator wraps an OpenRouter client as an Adjudicator.
func NewOpenRouterAdjudicator(client openrouter.Client, modelID string) Adjudicator {
	return &openRouterAdjudicator{client: client, model: modelID}
}

func (a *openRouterAdjudicator) Model() string { return a.model }

func (a *openRouterAdjudicator) Adjudicate(ctx context.Context, req model.EnrichmentRequest, hits []searxng.Result) (*Adjudication, error) {
	prompt, err := buildPrompt(req, hits)
	if err != nil {
		return nil, err
	}

	temp := adjudicationTemperature
	maxTokens := adjudicationMaxTokens
	resp, err := a.client.ChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:       a.model,
		Messages:    []openrouter.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, ErrUnparseable
	}

	return parseAdjudication(resp.Choices[0].Message.Content)
}
