// Package clip is a client for the image inference server.
//
// The server hosts the image tower of the CLIP model whose text tower serves
// the text embeddings, plus an object detector. It exposes two JSON
// endpoints:
//
//	POST /embed/image  {"image": <base64>, "content_type": "image/jpeg"}
//	                   -> {"embedding": [0.1, ...]}
//	POST /detect       {"image": <base64>, "content_type": "image/jpeg"}
//	                   -> {"detections": [...], "cropped": <base64>, "boxed": <base64>, "content_type": "image/jpeg"}
//
// A detect answer without detections carries no images; the client then
// returns the input unchanged.
package clip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 32 << 20
)

// Client talks to the image inference server.
// It implements ai.ImageEmbedder and ai.Detector.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var (
	_ ai.ImageEmbedder = (*Client)(nil)
	_ ai.Detector      = (*Client)(nil)
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit limits requests per second. Zero disables limiting.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With("component", "clip-client")
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default().With("component", "clip-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a client from the shared AI configuration.
func NewClientFromConfig(config *ai.Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return NewClient(config.VisionHost,
		WithHTTPClient(&http.Client{Timeout: config.RequestTimeout}),
		WithRateLimit(config.VisionRequestsPerSecond),
		WithAPIKey(config.APIKey),
	), nil
}

// APIError represents a non-200 answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vision API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

type imageRequest struct {
	Image       string `json:"image"`
	ContentType string `json:"content_type"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type detection struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

type detectResponse struct {
	Detections  []detection `json:"detections"`
	Cropped     string      `json:"cropped"`
	Boxed       string      `json:"boxed"`
	ContentType string      `json:"content_type"`
}

// EmbedImage returns the embedding of img.
func (c *Client) EmbedImage(ctx context.Context, img core.Image) ([]float32, error) {
	if img.Empty() {
		return nil, ai.ErrEmptyImage
	}

	var resp embedResponse
	if err := c.post(ctx, "/embed/image", newImageRequest(img), &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, ai.ErrEmptyEmbedding
	}
	return resp.Embedding, nil
}

// Detect returns img cropped to the most confident detection and img with
// every detection boxed. Without detections both results are img.
func (c *Client) Detect(ctx context.Context, img core.Image) (core.Image, core.Image, error) {
	if img.Empty() {
		return core.Image{}, core.Image{}, ai.ErrEmptyImage
	}

	var resp detectResponse
	if err := c.post(ctx, "/detect", newImageRequest(img), &resp); err != nil {
		return core.Image{}, core.Image{}, err
	}
	if len(resp.Detections) == 0 {
		c.logger.Debug("no objects detected")
		return img, img, nil
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = img.ContentType
	}
	cropped, err := decodeImage(resp.Cropped, contentType)
	if err != nil {
		return core.Image{}, core.Image{}, err
	}
	boxed, err := decodeImage(resp.Boxed, contentType)
	if err != nil {
		return core.Image{}, core.Image{}, err
	}
	if cropped.Empty() {
		cropped = img
	}
	if boxed.Empty() {
		boxed = img
	}

	c.logger.Debug("objects detected", "count", len(resp.Detections), "label", resp.Detections[0].Label)
	return cropped, boxed, nil
}

func newImageRequest(img core.Image) imageRequest {
	return imageRequest{
		Image:       base64.StdEncoding.EncodeToString(img.Data),
		ContentType: img.ContentType,
	}
}

func decodeImage(data, contentType string) (core.Image, error) {
	if data == "" {
		return core.Image{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return core.Image{}, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	return core.Image{Data: raw, ContentType: contentType}, nil
}

// post sends body as JSON and decodes the answer into result.
func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" && c.apiKey != "none" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("vision API request", "url", c.baseURL+path, "bytes", len(payload))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(msg)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(result); err != nil {
		return fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	return nil
}
