package ai

// CategoryOther is the fallback category for items that fit no other.
const CategoryOther = "other"

// ItemCategories defines the valid categories for items.
// Categorizers must answer with one of these values.
var ItemCategories = []string{
	"wallet",
	"key",
	"watch",
	"mobile phone",
	"shoes",
	"card",
	"bag",
	"electronics",
	"clothing",
	"document",
	CategoryOther,
}

// IsItemCategory reports whether category is one of ItemCategories.
func IsItemCategory(category string) bool {
	for _, c := range ItemCategories {
		if c == category {
			return true
		}
	}
	return false
}
