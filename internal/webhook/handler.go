// Package webhook receives WhatsApp Cloud API deliveries and hands the
// contained text messages to the chat pipeline.
package webhook

import (
	"context"
	"net/http"
	"time"

	"ovidio_backend/platform/config"
	"ovidio_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// processTimeout bounds a single inbound turn end to end, remote calls
// included.
const processTimeout = 90 * time.Second

// InboundMessage is one user text extracted from a Cloud API delivery.
type InboundMessage struct {
	ID          string
	From        string
	Text        string
	DisplayName string
}

// Processor runs the chat pipeline for one inbound message.
type Processor interface {
	Process(ctx context.Context, msg InboundMessage) error
}

// Handler handles the Meta webhook endpoints.
type Handler struct {
	cfg       config.WhatsAppConfig
	processor Processor
	log       *logger.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(cfg config.WhatsAppConfig, processor Processor, log *logger.Logger) *Handler {
	return &Handler{cfg: cfg, processor: processor, log: log}
}

// HandleVerify answers Meta's subscription handshake.
// GET /api/webhook
func (h *Handler) HandleVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")

	if mode != "subscribe" || token == "" || token != h.cfg.GetWhatsAppVerifyToken() {
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// HandleReceive accepts a Cloud API delivery and processes its text
// messages. The response is 200 regardless of pipeline outcome; a non-200
// would only make Meta redeliver a message we already looked at.
// POST /api/webhook
func (h *Handler) HandleReceive(c *gin.Context) {
	var env deliveryEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		h.log.Warn("webhook payload not parseable", "error", err)
		c.Status(http.StatusOK)
		return
	}

	for _, msg := range env.textMessages() {
		h.log.InboundMessage(msg.From, msg.ID, len(msg.Text))

		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), processTimeout)
		err := h.processor.Process(ctx, msg)
		cancel()
		if err != nil {
			h.log.Error("inbound message processing failed", "message_id", msg.ID, "error", err)
		}
	}

	c.Status(http.StatusOK)
}

// deliveryEnvelope mirrors the slice of the Cloud API payload we consume.
// Status updates (delivered/read receipts) arrive in the same shape but
// carry no messages and are dropped.
type deliveryEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []deliveryContact `json:"contacts"`
				Messages []deliveryMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type deliveryContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type deliveryMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// textMessages flattens the envelope into the text turns it carries,
// pairing each message with the profile name of its sender.
func (e deliveryEnvelope) textMessages() []InboundMessage {
	var out []InboundMessage
	for _, entry := range e.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text.Body == "" {
					continue
				}
				out = append(out, InboundMessage{
					ID:          msg.ID,
					From:        msg.From,
					Text:        msg.Text.Body,
					DisplayName: names[msg.From],
				})
			}
		}
	}
	return out
}
