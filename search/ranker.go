// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"sort"

	"github.com/poiesic/lostfound/core"
)

const (
	// LexicalFloor is the share of embedding similarity a text query keeps
	// when none of its words appear in the candidate's text.
	LexicalFloor = 0.15

	// DefaultTopK is the number of results returned when the caller asks for none.
	DefaultTopK = 5

	// headLen is the number of leading vector components reported with each result.
	headLen = 2
)

// Rank scores candidates against the query variants and returns the best
// topK, highest score first.
//
// For each candidate and variant the score is the cosine similarity between
// the variant vector and the candidate embedding of the same modality. Text
// scores are multiplied by LexicalFloor + (1-LexicalFloor)*MatchFactor, where
// the match factor compares the variant text with the candidate's normalized
// title, type and category. A candidate's score is its best variant score,
// rounded to 4 decimal places. A candidate without an embedding for the
// modality scores 0 and stays eligible.
//
// Equal scores keep candidate order. Rank is pure and deterministic.
func Rank(modality Modality, variants []Variant, candidates []Candidate, topK int) []*core.SearchResult {
	if topK <= 0 {
		topK = DefaultTopK
	}

	results := make([]*core.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, scoreCandidate(modality, variants, c))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func scoreCandidate(modality Modality, variants []Variant, c Candidate) *core.SearchResult {
	result := &core.SearchResult{Item: c.Item, Owner: c.Owner}

	embedding := c.Item.TextEmbedding
	if modality == ModalityImage {
		embedding = c.Item.ImageEmbedding
	}
	if len(embedding) == 0 || len(variants) == 0 {
		return result
	}

	var document string
	if modality == ModalityText {
		document = Normalize(c.Item.CombinedText())
	}

	best, bestVariant := 0.0, -1
	for i, v := range variants {
		score := CosineSimilarity(v.Vector, embedding)
		if modality == ModalityText {
			score *= LexicalFloor + (1-LexicalFloor)*MatchFactor(v.Text, document)
		}
		if bestVariant < 0 || score > best {
			best, bestVariant = score, i
		}
	}

	result.Score = roundScore(best)
	result.QueryHead = head(variants[bestVariant].Vector)
	result.ItemHead = head(embedding)
	return result
}

func head(v []float32) []float32 {
	n := min(headLen, len(v))
	out := make([]float32, n)
	copy(out, v[:n])
	return out
}
