package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/lostfound/ai"
)

// Modality selects which stored embedding a query is compared against.
type Modality int

const (
	// ModalityText compares against item text embeddings and applies lexical rescaling.
	ModalityText Modality = iota
	// ModalityImage compares against item image embeddings.
	ModalityImage
)

func (m Modality) String() string {
	if m == ModalityImage {
		return "image"
	}
	return "text"
}

// Query is a search request. Text takes precedence over Image when both are set.
type Query struct {
	Text  string
	Image ai.ImageSource
	// TopK limits the number of results. Values <= 0 use the searcher default.
	TopK int
}

// Modality reports which branch the query takes, or false if it has no usable input.
func (q Query) Modality() (Modality, bool) {
	if strings.TrimSpace(q.Text) != "" {
		return ModalityText, true
	}
	if q.Image != nil {
		return ModalityImage, true
	}
	return 0, false
}

// Variant is one embeddable form of a query. Text holds the normalized
// string used for both embedding and lexical matching; it is empty for
// image queries.
type Variant struct {
	Text   string
	Vector []float32
}

// QueryEmbedder turns queries into embedding variants.
type QueryEmbedder struct {
	embedder      ai.Embedder
	imageEmbedder ai.ImageEmbedder
	translator    ai.Translator
	logger        *slog.Logger
}

// NewQueryEmbedder creates a query embedder. translator may be nil, which
// disables the translated variant.
func NewQueryEmbedder(embedder ai.Embedder, imageEmbedder ai.ImageEmbedder, translator ai.Translator, logger *slog.Logger) (*QueryEmbedder, error) {
	if embedder == nil || imageEmbedder == nil {
		return nil, ErrNilEmbedder
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryEmbedder{
		embedder:      embedder,
		imageEmbedder: imageEmbedder,
		translator:    translator,
		logger:        logger.With("component", "query-embedder"),
	}, nil
}

// EmbedText returns the variants for a text query: the normalized original
// and, when the text contains Thai script and a translator is configured,
// the normalized English translation.
func (e *QueryEmbedder) EmbedText(ctx context.Context, text string) ([]Variant, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidQuery
	}

	texts := []string{EmbeddingText(text)}
	if e.translator != nil && containsThai(text) {
		translated, err := e.translator.Translate(ctx, text)
		if err != nil {
			e.logger.Error("failed to translate query", "err", err)
			return nil, fmt.Errorf("%w: translation: %w", ErrEmbeddingUnavailable, err)
		}
		if normalized := Normalize(translated); normalized != "" && normalized != texts[0] {
			texts = append(texts, normalized)
		}
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		e.logger.Error("failed to embed query", "variants", len(texts), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingUnavailable, len(vectors), len(texts))
	}

	variants := make([]Variant, len(texts))
	for i, t := range texts {
		if len(vectors[i]) == 0 {
			return nil, fmt.Errorf("%w: empty vector for %q", ErrEmbeddingUnavailable, t)
		}
		variants[i] = Variant{Text: t, Vector: vectors[i]}
	}

	e.logger.Debug("embedded text query", "variants", len(variants))
	return variants, nil
}

// EmbedImage resolves the image source and returns its single variant.
// An unreadable or unsupported image is an ErrInvalidQuery.
func (e *QueryEmbedder) EmbedImage(ctx context.Context, src ai.ImageSource) ([]Variant, error) {
	if src == nil {
		return nil, ErrInvalidQuery
	}
	img, err := src.Resolve()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	vector, err := e.imageEmbedder.EmbedImage(ctx, img)
	if err != nil {
		e.logger.Error("failed to embed query image", "bytes", len(img.Data), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty image vector", ErrEmbeddingUnavailable)
	}

	return []Variant{{Vector: vector}}, nil
}

// Embed dispatches on the query's modality.
func (e *QueryEmbedder) Embed(ctx context.Context, q Query) (Modality, []Variant, error) {
	modality, ok := q.Modality()
	if !ok {
		return 0, nil, ErrInvalidQuery
	}

	var variants []Variant
	var err error
	if modality == ModalityText {
		variants, err = e.EmbedText(ctx, q.Text)
	} else {
		variants, err = e.EmbedImage(ctx, q.Image)
	}
	return modality, variants, err
}
