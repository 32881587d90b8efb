package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"adforge/internal/infra"
	"adforge/internal/mood"
	"adforge/internal/sqlinline"
)

// MoodsList returns the mood board of one campaign, newest first.
func (a *App) MoodsList(w http.ResponseWriter, r *http.Request) {
	campaignID := r.URL.Query().Get("campaign_id")
	if campaignID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "campaign_id query parameter is required")
		return
	}
	if err := requireUUID(campaignID); err != nil {
		a.domainError(w, err)
		return
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QListMoodMediaByCampaign, campaignID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		m, err := scanMood(rows)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("http: skipping mood media row")
			continue
		}
		out = append(out, renderMood(m))
	}
	if err := rows.Err(); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, out)
}

// MoodsGenerateImages produces one standalone mood image per requested ratio.
func (a *App) MoodsGenerateImages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CampaignID   string   `json:"campaign_id"`
		Prompt       string   `json:"prompt"`
		SourceImages []string `json:"source_images"`
		Ratios       []string `json:"ratios"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}
	if len(req.Ratios) == 0 {
		req.Ratios = []string{"1:1"}
	}

	media, err := a.Mood.GenerateImages(r.Context(), mood.ImagesRequest{
		CampaignID:   req.CampaignID,
		Prompt:       req.Prompt,
		SourceImages: req.SourceImages,
		Ratios:       req.Ratios,
		RequestID:    a.requestID(r),
	})
	if err != nil {
		a.domainError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(media))
	for _, m := range media {
		out = append(out, renderMood(m))
	}
	a.json(w, http.StatusOK, out)
}

// MoodsGenerateVideo produces a single mood clip.
func (a *App) MoodsGenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CampaignID   string   `json:"campaign_id"`
		Prompt       string   `json:"prompt"`
		SourceImages []string `json:"source_images"`
		Ratio        string   `json:"ratio"`
		Duration     int      `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}
	if req.Ratio == "" {
		req.Ratio = "16:9"
	}
	if req.Duration == 0 {
		req.Duration = 6
	}

	media, err := a.Mood.GenerateVideo(r.Context(), mood.VideoRequest{
		CampaignID:      req.CampaignID,
		Prompt:          req.Prompt,
		SourceImages:    req.SourceImages,
		AspectRatio:     req.Ratio,
		DurationSeconds: req.Duration,
		RequestID:       a.requestID(r),
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, renderMood(*media))
}

// MoodsUpload stores a hand-picked image or video on the mood board with
// is_generated false. campaign_id may arrive as a form field or query
// parameter.
func (a *App) MoodsUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	campaignID := r.FormValue("campaign_id")
	if campaignID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "campaign_id is required")
		return
	}
	if err := requireUUID(campaignID); err != nil {
		a.domainError(w, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "could not read uploaded file")
		return
	}
	if int64(len(data)) > maxUploadBytes {
		a.error(w, http.StatusBadRequest, "bad_request", "uploaded file is too large")
		return
	}

	media, err := a.Mood.Upload(r.Context(), campaignID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, renderMood(*media))
}

// MoodsDelete removes the mood media row and its stored file. File cleanup is
// best effort.
func (a *App) MoodsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := requireUUID(id); err != nil {
		a.domainError(w, err)
		return
	}

	filePath, err := scanString(a.SQL.QueryRow(r.Context(), sqlinline.QDeleteMoodMedia, id))
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "not_found", "mood media not found")
		return
	}
	if err != nil {
		a.domainError(w, err)
		return
	}

	if key := a.Store.KeyFromURL(filePath); key != "" {
		if err := a.Store.Remove(key); err != nil {
			a.Logger.Warn().Err(err).Str("key", key).Msg("http: mood file cleanup failed")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
