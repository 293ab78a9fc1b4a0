package enrich

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-enrich/internal/model"
	"github.com/sells-group/domain-enrich/pkg/searxng"
)

// anthropicAdjudicator adjudicates via the Anthropic Messages API. Selected
// with `ai.provider: anthropic`.
type anthropicAdjudicator struct {
	client sdk.Client
	model  string
}

// NewAnthropicAdjudicator creates an Adjudicator backed by the official
// Anthropic SDK.
func NewAnthropicAdjudicator(apiKey, modelID string) Adjudicator {
	return &anthropicAdjudicator{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  modelID,
	}
}

func (a *anthropicAdjudicator) Model() string { return a.model }

func (a *anthropicAdjudicator) Adjudicate(ctx context.Context, req model.EnrichmentRequest, hits []searxng.Result) (*Adjudication, error) {
	prompt, err := buildPrompt(req, hits)
	if err != nil {
		return nil, err
	}

	msg, err := a.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(a.model),
		MaxTokens:   adjudicationMaxTokens,
		Temperature: sdk.Float(adjudicationTemperature),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "enrich: anthropic adjudication")
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return parseAdjudication(block.Text)
		}
	}

	return nil, ErrUnparseable
}
