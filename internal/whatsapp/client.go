// Package whatsapp implements the outbound WhatsApp Cloud API client.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ovidio_backend/platform/config"
	"ovidio_backend/platform/logger"
	"ovidio_backend/platform/phone"
)

const graphBaseURL = "https://graph.facebook.com/v19.0"

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	baseURL       string
	token         string
	phoneNumberID string
	http          *http.Client
	log           *logger.Logger
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type documentPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Document         struct {
		Link     string `json:"link"`
		Caption  string `json:"caption,omitempty"`
		Filename string `json:"filename,omitempty"`
	} `json:"document"`
}

// NewClient creates a Cloud API client. Returns nil when the token is not
// configured so callers can treat outbound messaging as optional.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppToken() == "" || cfg.GetWhatsAppPhoneNumberID() == "" {
		return nil
	}

	return &Client{
		baseURL:       graphBaseURL,
		token:         cfg.GetWhatsAppToken(),
		phoneNumberID: cfg.GetWhatsAppPhoneNumberID(),
		http:          &http.Client{Timeout: 10 * time.Second},
		log:           log,
	}
}

// SendText delivers a plain text message.
func (c *Client) SendText(ctx context.Context, to string, body string) error {
	if c == nil {
		return nil
	}

	payload := textPayload{
		MessagingProduct: "whatsapp",
		To:               phone.Wire(to),
		Type:             "text",
	}
	payload.Text.Body = body

	if err := c.post(ctx, payload); err != nil {
		return err
	}
	c.log.OutboundReply(payload.To, false)
	return nil
}

// SendDocument delivers a document by URL with an optional caption.
func (c *Client) SendDocument(ctx context.Context, to, link, caption, filename string) error {
	if c == nil {
		return nil
	}

	payload := documentPayload{
		MessagingProduct: "whatsapp",
		To:               phone.Wire(to),
		Type:             "document",
	}
	payload.Document.Link = link
	payload.Document.Caption = caption
	payload.Document.Filename = filename

	if err := c.post(ctx, payload); err != nil {
		return err
	}
	c.log.OutboundReply(payload.To, true)
	return nil
}

func (c *Client) post(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}
