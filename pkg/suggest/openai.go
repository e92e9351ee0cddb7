package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkoukk/tiktoken-go"
)

const (
	defaultModel         = "gpt-4o"
	defaultTokenBudget   = 1500
	defaultMaxCandidates = 5
)

// OpenAIProvider implements Suggester against an OpenAI-compatible chat
// completion API.
type OpenAIProvider struct {
	client        openai.Client
	model         string
	tokenBudget   int
	maxCandidates int
	encoder       *tiktoken.Tiktoken
}

// ProviderOption configures an OpenAIProvider.
type ProviderOption func(*OpenAIProvider)

// WithModel sets the model used for suggestions.
func WithModel(model string) ProviderOption {
	return func(p *OpenAIProvider) {
		p.model = model
	}
}

// WithTokenBudget caps how many tokens of DOM context are sent per request.
func WithTokenBudget(budget int) ProviderOption {
	return func(p *OpenAIProvider) {
		p.tokenBudget = budget
	}
}

// WithMaxCandidates caps how many selector suggestions are requested.
func WithMaxCandidates(n int) ProviderOption {
	return func(p *OpenAIProvider) {
		p.maxCandidates = n
	}
}

// NewOpenAIProvider creates a suggestion provider. If apiKey is empty it
// falls back to the OPENAI_API_KEY environment variable; OPENAI_BASE_URL
// redirects to any OpenAI-compatible endpoint.
func NewOpenAIProvider(apiKey string, opts ...ProviderOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}

	p := &OpenAIProvider{
		client:        openai.NewClient(clientOpts...),
		model:         defaultModel,
		tokenBudget:   defaultTokenBudget,
		maxCandidates: defaultMaxCandidates,
		encoder:       encoder,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

var _ Suggester = (*OpenAIProvider)(nil)

// SuggestSelectors asks the model for resilient alternative selectors. The
// DOM context is trimmed to the token budget before sending.
func (p *OpenAIProvider) SuggestSelectors(ctx context.Context, intentName, domContext string) ([]string, error) {
	prompt := p.buildPrompt(intentName, p.trimToBudget(domContext))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(500),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, fmt.Errorf("suggestion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	return extractSelectors(resp.Choices[0].Message.Content, p.maxCandidates), nil
}

func (p *OpenAIProvider) buildPrompt(intentName, domContext string) string {
	return fmt.Sprintf(`A UI test could not locate the element known as %q.

Here are the targetable elements currently on the page:
%s

Suggest up to %d alternative selector expressions for this element, in order
of reliability, prioritizing:
1. ARIA roles and accessible names (role=button[name="..."])
2. Data attributes (data-testid, data-qa)
3. Stable text content
4. Specific element types with clear context

Return only a JSON array of selector strings, no explanation.`,
		intentName, domContext, p.maxCandidates)
}

// trimToBudget cuts the DOM context to the token budget so one oversized
// page cannot blow up request cost or latency.
func (p *OpenAIProvider) trimToBudget(text string) string {
	tokens := p.encoder.Encode(text, nil, nil)
	if len(tokens) <= p.tokenBudget {
		return text
	}
	return p.encoder.Decode(tokens[:p.tokenBudget])
}

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// extractSelectors pulls a JSON string array out of a model response,
// tolerating surrounding prose and code fences.
func extractSelectors(response string, max int) []string {
	match := jsonArrayPattern.FindString(response)
	if match == "" {
		return nil
	}

	var candidates []string
	if err := json.Unmarshal([]byte(match), &candidates); err != nil {
		return nil
	}

	out := candidates[:0]
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
		if len(out) == max {
			break
		}
	}
	return out
}
