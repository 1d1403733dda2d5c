package clip

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testImage = core.Image{Data: []byte("fake-jpeg"), ContentType: "image/jpeg"}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, req imageRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedImage(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req imageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		raw, err := base64.StdEncoding.DecodeString(req.Image)
		require.NoError(t, err)
		assert.Equal(t, testImage.Data, raw)
		assert.Equal(t, "image/jpeg", req.ContentType)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.6, 0.8}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithAPIKey("secret"))
	vec, err := c.EmbedImage(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, vec)
	assert.Equal(t, "/embed/image", gotPath)
}

func TestEmbedImage_Errors(t *testing.T) {
	t.Run("empty image", func(t *testing.T) {
		c := NewClient("http://unused")
		_, err := c.EmbedImage(context.Background(), core.Image{})
		assert.ErrorIs(t, err, ai.ErrEmptyImage)
	})

	t.Run("server error", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, _ imageRequest) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		})
		_, err := NewClient(srv.URL).EmbedImage(context.Background(), testImage)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, "model not loaded", apiErr.Message)
	})

	t.Run("empty embedding", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, _ imageRequest) {
			w.Write([]byte(`{"embedding":[]}`))
		})
		_, err := NewClient(srv.URL).EmbedImage(context.Background(), testImage)
		assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, _ imageRequest) {
			w.Write([]byte(`not json`))
		})
		_, err := NewClient(srv.URL).EmbedImage(context.Background(), testImage)
		assert.ErrorIs(t, err, ai.ErrMalformedResponse)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, _ imageRequest) {
			w.Write([]byte(`{"embedding":[1]}`))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewClient(srv.URL).EmbedImage(ctx, testImage)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDetect(t *testing.T) {
	cropped := []byte("cropped")
	boxed := []byte("boxed")

	t.Run("with detections", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, _ imageRequest) {
			json.NewEncoder(w).Encode(detectResponse{
				Detections: []detection{{X1: 1, Y1: 2, X2: 3, Y2: 4, Confidence: 0.9, Label: "wallet"}},
				Cropped:    base64.StdEncoding.EncodeToString(cropped),
				Boxed:      base64.StdEncoding.EncodeToString(boxed),
			})
		})

		gotCropped, gotBoxed, err := NewClient(srv.URL).Detect(context.Background(), testImage)
		require.NoError(t, err)
		assert.Equal(t, cropped, gotCropped.Data)
		assert.Equal(t, "image/jpeg", gotCropped.ContentType)
		assert.Equal(t, boxed, gotBoxed.Data)
	})

	t.Run("nothing detected", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, _ imageRequest) {
			w.Write([]byte(`{"detections":[]}`))
		})

		gotCropped, gotBoxed, err := NewClient(srv.URL).Detect(context.Background(), testImage)
		require.NoError(t, err)
		assert.Equal(t, testImage, gotCropped)
		assert.Equal(t, testImage, gotBoxed)
	})

	t.Run("bad base64", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, _ imageRequest) {
			w.Write([]byte(`{"detections":[{"label":"key"}],"cropped":"%%%"}`))
		})

		_, _, err := NewClient(srv.URL).Detect(context.Background(), testImage)
		assert.ErrorIs(t, err, ai.ErrMalformedResponse)
	})
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithVisionHost("http://vision:8001/"), ai.WithVisionRateLimit(0))

	c, err := NewClientFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://vision:8001", c.baseURL)
	assert.Nil(t, c.limiter)
	assert.Equal(t, cfg.RequestTimeout, c.httpClient.Timeout)

	c = NewClient("http://x", WithRateLimit(0.5))
	require.NotNil(t, c.limiter)
	assert.Equal(t, 1, c.limiter.Burst())
}
