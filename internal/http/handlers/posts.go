package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"adforge/internal/creative"
	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/sqlinline"
	"adforge/pkg/zip"
)

// variantOrder is the fixed rendering order of post image variants.
var variantOrder = []string{"1:1", "16:9", "9:16"}

// PostsGenerate runs the full generation pipeline and returns the persisted
// post. Input validation happens inside the orchestrator so its errors map
// through the shared taxonomy.
func (a *App) PostsGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CampaignID   string   `json:"campaign_id"`
		SourceImages []string `json:"source_images"`
		Prompt       string   `json:"prompt"`
		AspectRatios []string `json:"aspect_ratios"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}

	post, err := a.Orchestrator.Generate(r.Context(), creative.GenerateRequest{
		CampaignID:   req.CampaignID,
		SourceImages: req.SourceImages,
		Prompt:       req.Prompt,
		AspectRatios: req.AspectRatios,
		RequestID:    a.requestID(r),
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, renderPost(*post))
}

// PostsRegenerateImages re-renders every variant of an existing post, keeping
// its copy. The body is optional; prompt adds fresh style direction.
func (a *App) PostsRegenerateImages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	post, err := a.Orchestrator.RegenerateImages(r.Context(), chi.URLParam(r, "id"), req.Prompt, a.requestID(r))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, renderPost(*post))
}

// PostsList returns posts newest first, filtered to one campaign when
// campaign_id is given.
func (a *App) PostsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listQuery := sqlinline.QListPosts
	args := []any{}
	if campaignID := r.URL.Query().Get("campaign_id"); campaignID != "" {
		if err := requireUUID(campaignID); err != nil {
			a.domainError(w, err)
			return
		}
		listQuery = sqlinline.QListPostsByCampaign
		args = append(args, campaignID)
	}

	rows, err := a.SQL.Query(ctx, listQuery, args...)
	if err != nil {
		a.domainError(w, err)
		return
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("http: skipping post row")
			continue
		}
		out = append(out, renderPost(p))
	}
	if err := rows.Err(); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, out)
}

// PostsGet returns one post by id.
func (a *App) PostsGet(w http.ResponseWriter, r *http.Request) {
	p, err := a.loadPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, renderPost(*p))
}

// PostsUpdate edits the text fields of a post and, when image refs are given,
// repoints its variants. Only fields present in the payload change.
func (a *App) PostsUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Headline  *string `json:"headline"`
		BodyText  *string `json:"body_text"`
		Caption   *string `json:"caption"`
		TextColor *string `json:"text_color"`
		Image1x1  *string `json:"image_1_1"`
		Image16x9 *string `json:"image_16_9"`
		Image9x16 *string `json:"image_9_16"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}

	ctx := r.Context()
	p, err := a.loadPost(ctx, chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}

	if req.Headline != nil {
		p.Headline = *req.Headline
	}
	if req.BodyText != nil {
		p.BodyText = *req.BodyText
	}
	if req.Caption != nil {
		p.Caption = *req.Caption
	}
	if req.TextColor != nil {
		p.TextColor = *req.TextColor
	}

	var id string
	err = a.SQL.QueryRow(ctx, sqlinline.QUpdatePostText, p.ID, p.Headline, p.BodyText, p.Caption, p.TextColor).Scan(&id)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "not_found", "post not found")
		return
	}
	if err != nil {
		a.domainError(w, err)
		return
	}

	if req.Image1x1 != nil || req.Image16x9 != nil || req.Image9x16 != nil {
		if req.Image1x1 != nil {
			p.Image1x1 = req.Image1x1
		}
		if req.Image16x9 != nil {
			p.Image16x9 = req.Image16x9
		}
		if req.Image9x16 != nil {
			p.Image9x16 = req.Image9x16
		}
		err = a.SQL.QueryRow(ctx, sqlinline.QUpdatePostImages, p.ID,
			p.Image1x1, p.Image16x9, p.Image9x16, p.GenerationPrompt, p.ImageFolder).Scan(&id)
		if err != nil {
			a.domainError(w, err)
			return
		}
	}

	a.json(w, http.StatusOK, renderPost(*p))
}

// PostsDelete removes the post row and its image folder. Folder cleanup is
// best effort.
func (a *App) PostsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := requireUUID(id); err != nil {
		a.domainError(w, err)
		return
	}

	folder, err := scanString(a.SQL.QueryRow(r.Context(), sqlinline.QDeletePost, id))
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "not_found", "post not found")
		return
	}
	if err != nil {
		a.domainError(w, err)
		return
	}

	if folder != "" {
		if err := a.Store.RemoveDir(folder); err != nil {
			a.Logger.Warn().Err(err).Str("folder", folder).Msg("http: post folder cleanup failed")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostsDownload streams every stored variant of a post as one zip archive.
func (a *App) PostsDownload(w http.ResponseWriter, r *http.Request) {
	p, err := a.loadPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}

	entries := []zip.Entry{}
	for _, ratio := range variantOrder {
		v := p.VariantPath(ratio)
		if v == nil || *v == "" {
			continue
		}
		data, err := a.Store.Read(*v)
		if err != nil {
			a.Logger.Warn().Err(err).Str("key", *v).Msg("http: variant missing on disk, skipping")
			continue
		}
		entries = append(entries, zip.Entry{
			Name:     path.Base(*v),
			Data:     data,
			Modified: p.CreatedAt,
		})
	}
	if len(entries) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "post has no stored images")
		return
	}

	archive, err := zip.Archive(entries)
	if err != nil {
		a.domainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=post-%s.zip", p.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) loadPost(ctx context.Context, id string) (*domain.Post, error) {
	if err := requireUUID(id); err != nil {
		return nil, err
	}
	p, err := scanPost(a.SQL.QueryRow(ctx, sqlinline.QSelectPostByID, id))
	if infra.IsNoRows(err) {
		return nil, fmt.Errorf("%w: post %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	return &p, nil
}
