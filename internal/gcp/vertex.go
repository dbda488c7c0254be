package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Transcriber Model Prompts ---
const TranscriberSystemPrompt = "You are an OCR transcription engine. Your task is to read the supplied scanned page image and transcribe its text content exactly as printed. You must output your response as a single valid JSON object."
const TranscriberUserPrompt = `Transcribe all text visible in the provided page image.

Follow these rules precisely:
1. Preserve the reading order of the page, one printed line per output line.
2. Do not correct, translate, or reword anything; transcribe characters exactly as printed.
3. If a region is illegible, skip it rather than guessing.
4. Estimate your overall transcription confidence for the page as a number from 0 to 100.

The output MUST be a single JSON object with exactly two keys:
{
  "text": "<the transcribed text, with \n between lines>",
  "confidence": <number from 0 to 100>
}

Do not include any text before or after the JSON object.`

// VertexClient holds the pre-configured generative model used as the remote
// text-recognition backend.
type VertexClient struct {
	TranscriberModel *genai.GenerativeModel
	baseClient       *genai.Client
}

// NewVertexClient creates a new client holding the transcriber model.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	transcriberModel := baseClient.GenerativeModel(modelName)
	transcriberModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TranscriberSystemPrompt)},
	}
	transcriberModel.GenerationConfig = genai.GenerationConfig{
		// Force JSON output. Transcription must be deterministic.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}
	transcriberModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		TranscriberModel: transcriberModel,
		baseClient:       baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
