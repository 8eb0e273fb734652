package ai

import (
	"context"
	"fmt"
	"strings"

	"ovidio_backend/platform/config"

	"google.golang.org/genai"
)

const extractSystemPrompt = `Sos un asistente que extrae nombres de productos de mensajes de clientes de una empresa de seguridad electrónica.

REGLAS:
- Extraé SOLO el nombre del producto (sin saludos, sin "necesito", sin verbos)
- Ejemplos:
  * "Hola, necesito una cámara IP" -> "cámara IP"
  * "che querría una alarma Ajax" -> "alarma Ajax"
  * "tienen DVR Hikvision?" -> "DVR Hikvision"
  * "hola" -> ""
- Si NO hay producto en el mensaje, respondé con string vacío ""
- Respondé SOLO con el nombre del producto, nada más`

// GenAIExtractor asks a Gemini model for the product phrase.
type GenAIExtractor struct {
	client *genai.Client
	model  string
}

// NewGenAIExtractor creates the LLM-backed extractor. Returns nil when no
// API key is configured.
func NewGenAIExtractor(ctx context.Context, cfg config.GenAIConfig) (*GenAIExtractor, error) {
	if !cfg.IsGenAIEnabled() {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGenAIAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIExtractor{client: client, model: cfg.GetGenAIModel()}, nil
}

// ExtractTerm implements search.TermExtractor.
func (e *GenAIExtractor) ExtractTerm(ctx context.Context, text string) (string, error) {
	resp, err := e.client.Models.GenerateContent(ctx, e.model,
		genai.Text(text),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(extractSystemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.3),
			MaxOutputTokens:   50,
		},
	)
	if err != nil {
		return "", fmt.Errorf("genai extract: %w", err)
	}

	term := strings.TrimSpace(resp.Text())
	term = strings.Trim(term, `"'`)
	return term, nil
}
