package ai

import (
	"context"
	"fmt"
	"strings"

	"ovidio_backend/platform/config"

	"google.golang.org/genai"
)

const personaPrompt = `Sos Ovidio, el asistente virtual de GRUPO SER (empresa de seguridad electrónica en Argentina).

PERSONALIDAD:
- Cordial, profesional, empático
- Hablás en argentino (vos, che, dale)
- Sé breve y directo, sin ser seco

REGLAS DE ORO:
- NUNCA inventes stock ni precios: usá exactamente los datos del borrador
- NUNCA prometas fechas de entrega
- Mantené los números, códigos y asteriscos de WhatsApp del borrador sin cambios
- Si el borrador pide confirmar con "listo", conservá esa indicación

Vas a recibir el mensaje del cliente y un borrador de respuesta con los
datos verificados. Reescribí el borrador en tu voz, sin agregar información.`

// GenAIResponder rewrites the deterministic reply draft in the assistant's
// voice. Prices, codes and stock figures come from the draft; the model only
// supplies tone.
type GenAIResponder struct {
	client *genai.Client
	model  string
}

// NewGenAIResponder creates the LLM-backed responder. Returns nil when no
// API key is configured.
func NewGenAIResponder(ctx context.Context, cfg config.GenAIConfig) (*GenAIResponder, error) {
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

	return &GenAIResponder{client: client, model: cfg.GetGenAIModel()}, nil
}

// Compose rewrites draft as an answer to message for the named customer.
func (r *GenAIResponder) Compose(ctx context.Context, customerName, message, draft string) (string, error) {
	input := fmt.Sprintf("Cliente: %s\nMensaje del cliente: %s\n\nBorrador verificado:\n%s",
		orNewCustomer(customerName), message, draft)

	resp, err := r.client.Models.GenerateContent(ctx, r.model,
		genai.Text(input),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(personaPrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.7),
			MaxOutputTokens:   500,
		},
	)
	if err != nil {
		return "", fmt.Errorf("genai compose: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func orNewCustomer(name string) string {
	if name == "" {
		return "Cliente nuevo"
	}
	return name
}
