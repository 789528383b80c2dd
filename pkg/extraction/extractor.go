// Package extraction wraps the external AI attribute extraction capability.
// The rest of the core treats it as an opaque, potentially slow, potentially
// failing dependency with a designed fallback path.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ErrNoResult is returned when the extractor responds but produces no attributes
var ErrNoResult = errors.New("extractor produced no attributes")

// Extractor is the capability interface consumed by the matching core
type Extractor interface {
	Extract(ctx context.Context, text string, itemType models.ItemType) (*models.ExtractedAttributes, error)
}

// Config holds configuration for the HTTP extractor
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// HTTPExtractor invokes an inference endpoint over HTTP. Every call is
// bounded by the configured timeout; callers treat a timeout as a failure
// and fall back to non-AI normalization.
type HTTPExtractor struct {
	client   *http.Client
	endpoint string
	apiKey   string
	timeout  time.Duration
	logger   ectologger.Logger
}

// NewHTTPExtractor creates a new HTTP-backed extractor
func NewHTTPExtractor(cfg Config, logger ectologger.Logger) *HTTPExtractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPExtractor{
		client:   &http.Client{Timeout: timeout},
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		logger:   logger,
	}
}

type extractRequest struct {
	Text     string `json:"text"`
	ItemType string `json:"item_type"`
}

// Extract sends the free text to the inference endpoint and returns the
// structured attributes it found
func (e *HTTPExtractor) Extract(ctx context.Context, text string, itemType models.ItemType) (*models.ExtractedAttributes, error) {
	ctx, span := tracing.StartSpan(ctx, "extraction.HTTPExtractor.Extract")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(extractRequest{Text: text, ItemType: string(itemType)})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("Attribute extraction request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"status": resp.StatusCode,
			"body":   string(raw),
		}).Warn("Attribute extraction returned non-200")
		return nil, fmt.Errorf("extractor returned status %d", resp.StatusCode)
	}

	var attrs models.ExtractedAttributes
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("failed to decode extractor response: %w", err)
	}

	if attrs.IsEmpty() {
		return nil, ErrNoResult
	}

	return &attrs, nil
}
