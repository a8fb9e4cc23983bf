package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vidShare/business/embedding"

	"github.com/pobyzaarif/goshortcute"
)

type Config struct {
	BaseURL           string
	BasicAuthUsername string
	BasicAuthPassword string
	Timeout           time.Duration
}

// HTTPEncoder calls a text-embedding service over HTTP.
type HTTPEncoder struct {
	cfg    Config
	client *http.Client
}

var _ embedding.TextEncoder = (*HTTPEncoder)(nil)

func NewHTTPEncoder(cfg Config) *HTTPEncoder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &HTTPEncoder{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type payloadEmbed struct {
	Inputs []string `json:"inputs"`
}

type responseEmbed struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (r *HTTPEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	url := r.cfg.BaseURL + "/embed"

	payloadByte, err := json.Marshal(payloadEmbed{Inputs: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadByte))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	if r.cfg.BasicAuthUsername != "" {
		buildBasicAuth := goshortcute.StringtoBase64Encode(r.cfg.BasicAuthUsername + ":" + r.cfg.BasicAuthPassword)
		req.Header.Add("Authorization", "Basic "+buildBasicAuth)
	}

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedding.ErrEncoderUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%w: encoder returned %d: %s", embedding.ErrEncoderUnavailable, res.StatusCode, bodyBytes)
	}

	var out responseEmbed
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode encoder response: %w", err)
	}
	if len(out.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: empty response", embedding.ErrEncoderUnavailable)
	}
	return out.Embeddings[0], nil
}
