package lostfound

import (
	"github.com/poiesic/lostfound/ai"
)

func pngSource() ai.ImageSource {
	return ai.ImageBytes(pngBytes)
}

func mockInvalidAIConfig() *ai.Config {
	cfg := ai.DefaultConfig()
	cfg.EmbeddingModel = ""
	return cfg
}
