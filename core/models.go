package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ItemType distinguishes reports of lost items from reports of found items.
type ItemType string

const (
	// ItemTypeLost marks an item somebody is looking for.
	ItemTypeLost ItemType = "lost"
	// ItemTypeFound marks an item somebody has picked up.
	ItemTypeFound ItemType = "found"
)

// Image is a stored image payload with its MIME type.
type Image struct {
	Data        []byte
	ContentType string
}

// Empty reports whether the image carries no bytes.
func (i Image) Empty() bool {
	return len(i.Data) == 0
}

// Item is a lost or found post.
//
// TextEmbedding and ImageEmbedding are written together with the item in a
// single transaction. Either may be nil for items that were stored before an
// embedding model was available; the ranker scores those as 0 for the
// missing modality.
type Item struct {
	Id             ID
	Title          string   `validate:"required,max=200"`
	Type           ItemType `validate:"required,oneof=lost found"`
	Category       string   `validate:"max=64"`
	OwnerID        ID
	Cropped        Image // Detected object region (or the original when nothing was detected)
	Boxed          Image // Original annotated with detection boxes
	Original       Image
	TextEmbedding  []float32
	ImageEmbedding []float32
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// CombinedText returns title, type and category joined by single spaces.
// Empty parts are skipped.
func (i *Item) CombinedText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{i.Title, string(i.Type), i.Category} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// DisplayImage returns the image shown in listings and search results:
// the cropped image, falling back to the original.
func (i *Item) DisplayImage() Image {
	if !i.Cropped.Empty() {
		return i.Cropped
	}
	return i.Original
}

// HasEmbeddings reports whether both modality embeddings are present.
func (i *Item) HasEmbeddings() bool {
	return len(i.TextEmbedding) > 0 && len(i.ImageEmbedding) > 0
}

// Checkpoint records how far a batch processor got, so a restarted run
// resumes after LastID instead of starting over.
type Checkpoint struct {
	ProcessorType string
	LastID        ID
	Processed     int64
	UpdatedAt     time.Time
}

// SearchResult is an item paired with its rounded similarity score.
type SearchResult struct {
	Item  *Item
	Owner string // Display name of the owning user
	Score float64
	// QueryHead and ItemHead hold the first two components of the winning
	// query vector and the item vector. Useful when debugging rankings.
	QueryHead []float32
	ItemHead  []float32
}
