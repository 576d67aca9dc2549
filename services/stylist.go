package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"vestioapi/models"

	"google.golang.org/genai"
)

type LLMModelName int

const (
	GeminiFlash LLMModelName = iota
	GeminiPro
)

func (m LLMModelName) String() string {
	switch m {
	case GeminiPro:
		return "gemini-2.5-pro"
	default:
		return "gemini-2.5-flash"
	}
}

func floatPointer(f float32) *float32 {
	return &f
}

type StylistResponse struct {
	Notes            string
	InputTokenCount  int32
	OutputTokenCount int32
	TotalTokenCount  int32
}

// StylistProvider writes a short styling note for a saved outfit. Runs only
// in the worker, the outfit generator itself never calls out to an LLM.
type StylistProvider interface {
	DescribeOutfit(outfit models.SavedOutfit, items []models.ClothingItem, modelName LLMModelName) (*StylistResponse, error)
}

type GeminiStylist struct {
}

func (GeminiStylist) DescribeOutfit(outfit models.SavedOutfit, items []models.ClothingItem, modelName LLMModelName) (*StylistResponse, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GOOGLE_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	var pieces []string
	for _, item := range items {
		piece := fmt.Sprintf("%s (%s", item.Name, item.Category)
		if len(item.Colors) > 0 {
			piece += ", " + strings.Join(item.Colors, "/")
		}
		if item.Brand != nil && *item.Brand != "" {
			piece += ", " + *item.Brand
		}
		piece += ")"
		pieces = append(pieces, piece)
	}

	prompt := fmt.Sprintf(
		"Outfit for a %s %s occasion, style preference %s. Pieces: %s. Write the styling note.",
		outfit.Season, outfit.Occasion, outfit.Style, strings.Join(pieces, "; "),
	)

	result, err := client.Models.GenerateContent(ctx, modelName.String(), []*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}, &genai.GenerateContentConfig{
		MaxOutputTokens: 500,
		Temperature:     floatPointer(1),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: "You are a friendly personal stylist. Given an outfit's pieces, write a single short paragraph (max 60 words) telling the user why the combination works and one small tip to elevate it. Plain text only, no markdown, no lists."},
			},
		},
	})
	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return nil, err
	}
	if result.PromptFeedback != nil {
		fmt.Println(result.PromptFeedback.BlockReason)
		return nil, fmt.Errorf("content violation: %s", result.PromptFeedback.BlockReasonMessage)
	}

	response := &StylistResponse{Notes: strings.TrimSpace(result.Text())}
	if result.UsageMetadata != nil {
		response.InputTokenCount = result.UsageMetadata.PromptTokenCount
		response.OutputTokenCount = result.UsageMetadata.CandidatesTokenCount
		response.TotalTokenCount = result.UsageMetadata.TotalTokenCount
		fmt.Println("Stylist token usage, total:", response.TotalTokenCount)
	}
	if response.Notes == "" {
		return nil, fmt.Errorf("empty stylist response for outfit %v", outfit.ID)
	}
	return response, nil
}
