package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/Lllllllleong/orderdocumentflow/internal/gcp"
)

// VertexEngine runs recognition through the pre-configured Vertex AI
// transcriber model. The model is forced into JSON response mode, so each
// call yields a {text, confidence} object.
type VertexEngine struct {
	client *gcp.VertexClient
}

// NewVertexEngine wraps an existing Vertex client.
func NewVertexEngine(client *gcp.VertexClient) *VertexEngine {
	return &VertexEngine{client: client}
}

func (e *VertexEngine) Name() string { return "vertex" }

type transcription struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// DetectText implements Engine. The context deadline is honored natively by
// the underlying API call.
func (e *VertexEngine) DetectText(ctx context.Context, image []byte) (Detection, error) {
	model := e.client.TranscriberModel
	prompt := genai.Text(gcp.TranscriberUserPrompt)
	imagePart := genai.Blob{
		MIMEType: imageMIMEType(image),
		Data:     image,
	}

	resp, err := model.GenerateContent(ctx, imagePart, prompt)
	if err != nil {
		return Detection{}, fmt.Errorf("failed to generate transcription from gemini: %w", err)
	}

	raw := extractText(resp)
	if raw == "" {
		return Detection{}, fmt.Errorf("gemini returned no text parts")
	}

	var tr transcription
	if err := json.Unmarshal([]byte(raw), &tr); err != nil {
		return Detection{}, fmt.Errorf("failed to decode transcription response: %w", err)
	}
	if tr.Confidence < 0 {
		tr.Confidence = 0
	}
	if tr.Confidence > 100 {
		tr.Confidence = 100
	}
	return Detection{Text: strings.TrimSpace(tr.Text), Confidence: tr.Confidence}, nil
}

// imageMIMEType sniffs the image's content type. Single-image uploads reach
// the engine unconverted, so a page is not necessarily a JPEG.
func imageMIMEType(image []byte) string {
	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		// Rasterized PDF pages are always JPEG.
		return "image/jpeg"
	}
	return mimeType
}

// extractText concatenates the text parts of the first candidate, stripping
// any code fences the model wraps around the JSON.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	content := strings.TrimSpace(sb.String())
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
