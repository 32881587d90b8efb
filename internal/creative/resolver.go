package creative

import (
	"context"
	"fmt"
	"net/http"

	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/sqlinline"
	"adforge/internal/storage"
)

// ResolvedSource is one input image loaded into memory, in caller order.
type ResolvedSource struct {
	Ref  string
	Data []byte
	MIME string
}

// ResolvedSet is the outcome of resolving every requested ref. ProductID and
// MoodID record provenance: the first ref matching a product image and the
// first ref matching a mood asset, independently of each other.
type ResolvedSet struct {
	Sources   []ResolvedSource
	ProductID *string
	MoodID    *string
}

// SourceImageResolver turns source refs (uploaded-media or mood-asset paths)
// into loaded bytes. Resolution is all or nothing: one unreadable ref fails
// the whole set before any model call happens.
type SourceImageResolver struct {
	store  *storage.FileStore
	sql    infra.SQLExecutor
	logger infra.Logger
}

func NewSourceImageResolver(store *storage.FileStore, sql infra.SQLExecutor, logger infra.Logger) *SourceImageResolver {
	return &SourceImageResolver{store: store, sql: sql, logger: logger}
}

func (r *SourceImageResolver) Resolve(ctx context.Context, campaignID string, refs []string) (*ResolvedSet, error) {
	set := &ResolvedSet{Sources: make([]ResolvedSource, 0, len(refs))}

	for _, ref := range refs {
		key := r.store.KeyFromURL(ref)
		if key == "" {
			return nil, fmt.Errorf("%w: source image %q", domain.ErrNotFound, ref)
		}
		data, err := r.store.Read(key)
		if err != nil {
			return nil, fmt.Errorf("%w: source image %q", domain.ErrNotFound, ref)
		}
		set.Sources = append(set.Sources, ResolvedSource{
			Ref:  ref,
			Data: data,
			MIME: http.DetectContentType(data),
		})

		if set.ProductID == nil {
			if id, ok := r.lookupOwner(ctx, sqlinline.QSelectProductIDByImagePath, campaignID, ref); ok {
				set.ProductID = &id
			}
		}
		if set.MoodID == nil {
			if id, ok := r.lookupOwner(ctx, sqlinline.QSelectMoodIDByFilePath, campaignID, ref); ok {
				set.MoodID = &id
			}
		}
	}

	r.logger.Debug().
		Str("campaign_id", campaignID).
		Int("sources", len(set.Sources)).
		Bool("product_match", set.ProductID != nil).
		Bool("mood_match", set.MoodID != nil).
		Msg("creative: sources resolved")
	return set, nil
}

// lookupOwner matches one ref against a provenance query. Lookup failures
// other than no-rows degrade to "no match"; provenance is informational and
// must not fail a generation that already has its bytes.
func (r *SourceImageResolver) lookupOwner(ctx context.Context, query, campaignID, ref string) (string, bool) {
	var id string
	if err := r.sql.QueryRow(ctx, query, campaignID, ref).Scan(&id); err != nil {
		if !infra.IsNoRows(err) {
			r.logger.Warn().Err(err).Str("ref", ref).Msg("creative: provenance lookup failed")
		}
		return "", false
	}
	return id, true
}
