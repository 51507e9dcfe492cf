package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finbook/finbook_backend/internal/core/domain"
	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// geminiModelName is the model used for transaction classification.
const geminiModelName = "gemini-2.0-flash"

// GeminiClassifier categorizes transactions with Gemini. Any failure falls
// back to the keyword classifier so transaction writes never block on the
// model.
type GeminiClassifier struct {
	client   *genai.Client
	fallback portssvc.Classifier
}

// NewGeminiClassifier creates the LLM-backed classifier.
func NewGeminiClassifier(ctx context.Context, apiKey string, fallback portssvc.Classifier) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClassifier{client: client, fallback: fallback}, nil
}

var _ portssvc.Classifier = (*GeminiClassifier)(nil)

type geminiClassification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classify asks the model for a category and confidence. The prompt pins the
// output to the closed category set and strict JSON.
func (c *GeminiClassifier) Classify(ctx context.Context, description string, amount decimal.Decimal) (*portssvc.Classification, error) {
	categories := make([]string, len(domain.Categories))
	for i, cat := range domain.Categories {
		categories[i] = string(cat)
	}

	prompt := "You are a personal finance transaction classifier.\n\n" +
		"Task:\n" +
		"- Classify the transaction below into exactly one category.\n" +
		"- Output STRICT JSON only (no comments, no extra text).\n" +
		"- Output a single JSON object with these fields:\n" +
		"- \"category\": string, one of: " + strings.Join(categories, ", ") + "\n" +
		"- \"confidence\": number between 0 and 1\n\n" +
		"Transaction:\n" +
		"- description: " + description + "\n" +
		"- amount: " + amount.String() + " (negative means money OUT)\n\n" +
		"Return ONLY valid raw JSON.\n" +
		"Do NOT wrap the response in code fences.\n"

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, geminiModelName, contents, nil)
	if err != nil {
		return c.fallback.Classify(ctx, description, amount)
	}

	rawText := resp.Text()
	if rawText == "" {
		return c.fallback.Classify(ctx, description, amount)
	}

	var parsed geminiClassification
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return c.fallback.Classify(ctx, description, amount)
	}

	category := domain.Category(strings.ToUpper(strings.TrimSpace(parsed.Category)))
	if !domain.ValidCategory(category) {
		return c.fallback.Classify(ctx, description, amount)
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		parsed.Confidence = 0
	}

	return &portssvc.Classification{
		Category:   category,
		Confidence: parsed.Confidence,
		Source:     domain.ClassifiedByAI,
	}, nil
}

// cleanModelJSON strips Markdown code fences the model sometimes adds despite
// instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
