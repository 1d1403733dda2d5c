package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/lostfound/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel answers GenerateContent from a scripted list of replies.
type fakeModel struct {
	replies  []string
	err      error
	calls    int
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.replies) {
		return &llms.ContentResponse{}, nil
	}
	reply := f.replies[f.calls]
	f.calls++
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestTranslator_Translate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"plain", "black wallet", "black wallet"},
		{"trailing period", "Black wallet.", "Black wallet"},
		{"quoted", `"black wallet."`, "black wallet"},
		{"extra lines", "black wallet\n(translated from Thai)", "black wallet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{replies: []string{tt.reply}}
			tr := newTranslatorWithModel(model)

			got, err := tr.Translate(ctx, "กระเป๋าสตางค์สีดำ")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			require.Len(t, model.messages, 2)
			assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
		})
	}

	t.Run("empty input skips the model", func(t *testing.T) {
		model := &fakeModel{}
		got, err := newTranslatorWithModel(model).Translate(ctx, "   ")
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Nil(t, model.messages)
	})

	t.Run("empty answer", func(t *testing.T) {
		model := &fakeModel{replies: []string{"..."}}
		_, err := newTranslatorWithModel(model).Translate(ctx, "กุญแจ")
		assert.ErrorIs(t, err, ai.ErrMalformedResponse)
	})

	t.Run("model error", func(t *testing.T) {
		boom := errors.New("connection refused")
		_, err := newTranslatorWithModel(&fakeModel{err: boom}).Translate(ctx, "กุญแจ")
		assert.ErrorIs(t, err, boom)
	})
}

func TestCategorizer_Categorize(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		replies []string
		want    string
		calls   int
	}{
		{"valid", []string{`{"category":"wallet"}`}, "wallet", 1},
		{"code fence", []string{"```json\n{\"category\":\"mobile phone\"}\n```"}, "mobile phone", 1},
		{"missing quote", []string{`{category":"key"}`}, "key", 1},
		{"unknown category", []string{`{"category":"spaceship"}`}, ai.CategoryOther, 1},
		{"uppercase", []string{`{"category":"Watch"}`}, "watch", 1},
		{"retry after garbage", []string{`nope`, `{"category":"card"}`}, "card", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{replies: tt.replies}
			got, err := newCategorizerWithModel(model).Categorize(ctx, "some item")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.calls, model.calls)
		})
	}

	t.Run("gives up after retries", func(t *testing.T) {
		model := &fakeModel{replies: []string{"x", "y", "z"}}
		_, err := newCategorizerWithModel(model).Categorize(ctx, "some item")
		assert.ErrorIs(t, err, ai.ErrMalformedResponse)
		assert.Equal(t, maxCategorizeAttempts, model.calls)
	})

	t.Run("empty title", func(t *testing.T) {
		model := &fakeModel{}
		got, err := newCategorizerWithModel(model).Categorize(ctx, "?!")
		require.NoError(t, err)
		assert.Equal(t, ai.CategoryOther, got)
		assert.Equal(t, 0, model.calls)
	})

	t.Run("no choices", func(t *testing.T) {
		got, err := newCategorizerWithModel(&fakeModel{}).Categorize(ctx, "thing")
		require.NoError(t, err)
		assert.Equal(t, ai.CategoryOther, got)
	})
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"category":"key"}`, `{"category":"key"}`},
		{`{category":"key"}`, `{"category":"key"}`},
		{`{category:"key"}`, `{"category":"key"}`},
		{`{"category":"key",}`, `{"category":"key"}`},
		{`{"a":"x, y", b":"z"}`, `{"a":"x, y", "b":"z"}`},
		{`{"a":"say \"hi\""}`, `{"a":"say \"hi\""}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, repairJSON(tt.in), tt.in)
	}
}

func TestTextUtils(t *testing.T) {
	assert.Equal(t, "black wallet", trimTrailingPunct("black wallet!? "))
	assert.Equal(t, "black wallet", stripQuotes(`“black wallet”`))
	assert.Equal(t, "a", firstLine("a\nb"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "Lost keys", scrubString(" Lost keys! "))
}

func TestBuildCategoryPrompt(t *testing.T) {
	prompt := buildCategoryPrompt()
	for _, c := range ai.ItemCategories {
		assert.Contains(t, prompt, `"`+c+`"`)
	}
}

func TestNewProvider(t *testing.T) {
	cfg := ai.NewConfig(ai.WithTranslation(false), ai.WithCategorization(false), ai.WithDetection(false))

	p, err := NewProvider(cfg)
	require.NoError(t, err)
	defer p.Close()

	assert.NotNil(t, p.Embedder())
	assert.NotNil(t, p.ImageEmbedder())
	assert.True(t, p.Translator() == nil)
	assert.True(t, p.Categorizer() == nil)
	assert.True(t, p.Detector() == nil)

	cfg = ai.NewConfig()
	p, err = NewProvider(cfg)
	require.NoError(t, err)
	assert.NotNil(t, p.Translator())
	assert.NotNil(t, p.Categorizer())
	assert.NotNil(t, p.Detector())
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(&ai.Config{})
	assert.Error(t, err)
}

// fakeEmbedClient returns one vector per text, or the scripted result.
type fakeEmbedClient struct {
	vectors [][]float32
	err     error
	texts   []string
}

func (f *fakeEmbedClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	f.texts = append(f.texts, texts...)
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func TestEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds in order", func(t *testing.T) {
		client := &fakeEmbedClient{}
		e, err := newEmbedderWithClient(client, "test-model")
		require.NoError(t, err)

		vectors, err := e.EmbedTexts(ctx, []string{"wallet", "red\numbrella"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{6, 1}, vectors[0])
		assert.Equal(t, []string{"wallet", "red umbrella"}, client.texts)

		v, err := e.EmbedText(ctx, "keys")
		require.NoError(t, err)
		assert.Equal(t, []float32{4, 1}, v)
	})

	t.Run("no texts", func(t *testing.T) {
		e, err := newEmbedderWithClient(&fakeEmbedClient{}, "test-model")
		require.NoError(t, err)
		vectors, err := e.EmbedTexts(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, vectors)
	})

	t.Run("empty vector", func(t *testing.T) {
		e, err := newEmbedderWithClient(&fakeEmbedClient{vectors: [][]float32{{}}}, "test-model")
		require.NoError(t, err)
		_, err = e.EmbedText(ctx, "wallet")
		assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
	})

	t.Run("count mismatch", func(t *testing.T) {
		e, err := newEmbedderWithClient(&fakeEmbedClient{vectors: [][]float32{{1}}}, "test-model")
		require.NoError(t, err)
		_, err = e.EmbedTexts(ctx, []string{"a", "b"})
		assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
	})

	t.Run("server error", func(t *testing.T) {
		boom := errors.New("connection refused")
		e, err := newEmbedderWithClient(&fakeEmbedClient{err: boom}, "test-model")
		require.NoError(t, err)
		_, err = e.EmbedText(ctx, "wallet")
		assert.ErrorIs(t, err, boom)
	})
}
