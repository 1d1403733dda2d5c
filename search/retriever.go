package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/storage"
)

// DefaultCandidateLimit bounds how many items a search scores. Ranking is an
// exhaustive scan over the newest items, so this is a capacity ceiling.
const DefaultCandidateLimit = 100

// Candidate is an item eligible for ranking, with its owner's display name.
type Candidate struct {
	Item  *core.Item
	Owner string
}

// CandidateRetriever loads the candidate set for a search.
type CandidateRetriever struct {
	items  storage.ItemRepository
	users  storage.UserRepository
	limit  int
	logger *slog.Logger
}

// NewCandidateRetriever creates a retriever that returns at most limit candidates.
func NewCandidateRetriever(items storage.ItemRepository, users storage.UserRepository, limit int, logger *slog.Logger) (*CandidateRetriever, error) {
	if items == nil || users == nil {
		return nil, ErrNilRepository
	}
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CandidateRetriever{
		items:  items,
		users:  users,
		limit:  limit,
		logger: logger.With("component", "candidate-retriever"),
	}, nil
}

// Fetch returns up to the configured limit of the most recent items.
// An empty store yields an empty slice.
func (r *CandidateRetriever) Fetch(ctx context.Context) ([]Candidate, error) {
	items, err := r.items.ListItems(ctx, r.limit)
	if err != nil {
		r.logger.Error("failed to list items", "limit", r.limit, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
	}
	if len(items) == 0 {
		return []Candidate{}, nil
	}

	ownerIDs := make([]core.ID, 0, len(items))
	seen := make(map[core.ID]bool, len(items))
	for _, item := range items {
		if item.OwnerID != 0 && !seen[item.OwnerID] {
			seen[item.OwnerID] = true
			ownerIDs = append(ownerIDs, item.OwnerID)
		}
	}

	owners := map[core.ID]*core.User{}
	if len(ownerIDs) > 0 {
		owners, err = r.users.GetUsers(ctx, ownerIDs...)
		if err != nil {
			r.logger.Error("failed to load owners", "count", len(ownerIDs), "err", err)
			return nil, fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
		}
	}

	candidates := make([]Candidate, len(items))
	for i, item := range items {
		candidates[i] = Candidate{Item: item}
		if owner, ok := owners[item.OwnerID]; ok && owner != nil {
			candidates[i].Owner = owner.Username
		}
	}
	return candidates, nil
}
