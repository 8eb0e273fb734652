// Package pdf renders quotation documents through a Gotenberg instance.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"ovidio_backend/platform/config"
)

// GotenbergClient converts HTML to PDF via Gotenberg's chromium route.
type GotenbergClient struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewGotenbergClient creates a client for the configured Gotenberg
// instance. Returns nil when no URL is configured.
func NewGotenbergClient(cfg config.GotenbergConfig) *GotenbergClient {
	if !cfg.IsGotenbergEnabled() {
		return nil
	}

	return &GotenbergClient{
		baseURL:  cfg.GetGotenbergURL(),
		username: cfg.GetGotenbergUsername(),
		password: cfg.GetGotenbergPassword(),
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ConvertHTML sends index.html to Gotenberg and returns the PDF bytes.
func (g *GotenbergClient) ConvertHTML(ctx context.Context, indexHTML []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"paperWidth":      "8.27",
		"paperHeight":     "11.7",
		"marginTop":       "0.5",
		"marginBottom":    "0.5",
		"marginLeft":      "0.5",
		"marginRight":     "0.5",
		"printBackground": "true",
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if err := addHTMLPart(writer, "index.html", indexHTML); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return g.doPost(ctx, "/forms/chromium/convert/html", body, writer.FormDataContentType())
}

func (g *GotenbergClient) doPost(ctx context.Context, path string, body *bytes.Buffer, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if g.username != "" && g.password != "" {
		req.SetBasicAuth(g.username, g.password)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gotenberg %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gotenberg %s returned %d: %s", path, resp.StatusCode, string(errBody))
	}

	return io.ReadAll(resp.Body)
}

func addHTMLPart(w *multipart.Writer, filename string, content []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, filename))
	h.Set("Content-Type", "text/html")

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", filename, err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write part %s: %w", filename, err)
	}
	return nil
}
