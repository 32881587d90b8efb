package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/middleware"
	"adforge/internal/sqlinline"
)

// campaignRequiredFields are the fields a campaign draft must carry before it
// can be saved. call_to_action, brand images and schedule stay optional.
var campaignRequiredFields = []string{"name", "campaign_message", "target_region", "target_audience"}

type campaignRequest struct {
	Name           string   `json:"name"`
	Message        string   `json:"campaign_message"`
	CallToAction   string   `json:"call_to_action"`
	TargetRegion   string   `json:"target_region"`
	TargetAudience string   `json:"target_audience"`
	BrandImages    []string `json:"brand_images"`
	StartDate      string   `json:"start_date"`
	DurationDays   *int     `json:"duration_days"`
}

// CampaignsCreate persists a new campaign. A missing target_region falls back
// to the region resolved from the request before validation runs.
func (a *App) CampaignsCreate(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}

	c, err := a.buildCampaign(r, req)
	if err != nil {
		a.domainError(w, err)
		return
	}
	if err := a.insertCampaign(r.Context(), c); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, renderCampaign(*c))
}

// CampaignsValidate checks a partial campaign draft without persisting it,
// reporting which required fields are still missing. The resolved region is
// filled in so the draft comes back more complete than it arrived.
func (a *App) CampaignsValidate(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}

	if strings.TrimSpace(stringField(data, "target_region")) == "" {
		if region := middleware.RegionFromContext(r.Context()); region != "" {
			data["target_region"] = region
		}
	}

	missing := []string{}
	for _, field := range campaignRequiredFields {
		if strings.TrimSpace(stringField(data, field)) == "" {
			missing = append(missing, field)
		}
	}
	a.json(w, http.StatusOK, validationResponse{
		Data:          data,
		MissingFields: missing,
		IsComplete:    len(missing) == 0,
	})
}

// CampaignsWithProducts creates a campaign together with its product catalog
// in one call. Validation runs up front for the whole payload; if a product
// insert fails midway the campaign is deleted again so no half-built catalog
// survives.
func (a *App) CampaignsWithProducts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Campaign campaignRequest  `json:"campaign"`
		Products []productRequest `json:"products"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}

	c, err := a.buildCampaign(r, req.Campaign)
	if err != nil {
		a.domainError(w, err)
		return
	}
	for i, p := range req.Products {
		if strings.TrimSpace(p.Name) == "" {
			a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("products[%d]: name is required", i))
			return
		}
	}

	ctx := r.Context()
	if err := a.insertCampaign(ctx, c); err != nil {
		a.domainError(w, err)
		return
	}

	products := []map[string]any{}
	for _, pr := range req.Products {
		p, err := a.insertProduct(ctx, c.ID, pr)
		if err != nil {
			// Roll the campaign back; products cascade with it.
			if _, derr := scanString(a.SQL.QueryRow(ctx, sqlinline.QDeleteCampaign, c.ID)); derr != nil {
				a.Logger.Error().Err(derr).Str("campaign_id", c.ID).Msg("http: campaign rollback failed")
			}
			a.domainError(w, err)
			return
		}
		products = append(products, renderProduct(p))
	}

	a.json(w, http.StatusCreated, map[string]any{
		"campaign": renderCampaign(*c),
		"products": products,
	})
}

// CampaignsList returns all campaigns, newest first.
func (a *App) CampaignsList(w http.ResponseWriter, r *http.Request) {
	rows, err := a.SQL.Query(r.Context(), sqlinline.QListCampaigns)
	if err != nil {
		a.domainError(w, err)
		return
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("http: skipping campaign row")
			continue
		}
		out = append(out, renderCampaign(c))
	}
	if err := rows.Err(); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, out)
}

// CampaignsGet returns one campaign by id.
func (a *App) CampaignsGet(w http.ResponseWriter, r *http.Request) {
	c, err := a.loadCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, renderCampaign(*c))
}

// CampaignsUpdate applies a partial update: only fields present in the payload
// change, everything else keeps its stored value.
func (a *App) CampaignsUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           *string   `json:"name"`
		Message        *string   `json:"campaign_message"`
		CallToAction   *string   `json:"call_to_action"`
		TargetRegion   *string   `json:"target_region"`
		TargetAudience *string   `json:"target_audience"`
		BrandImages    *[]string `json:"brand_images"`
		StartDate      *string   `json:"start_date"`
		DurationDays   *int      `json:"duration_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}

	ctx := r.Context()
	c, err := a.loadCampaign(ctx, chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}

	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Message != nil {
		c.Message = *req.Message
	}
	if req.CallToAction != nil {
		c.CallToAction = *req.CallToAction
	}
	if req.TargetRegion != nil {
		c.TargetRegion = *req.TargetRegion
	}
	if req.TargetAudience != nil {
		c.TargetAudience = *req.TargetAudience
	}
	if req.BrandImages != nil {
		c.BrandImages = domain.EncodeImageList(a.processImageList(ctx, *req.BrandImages))
	}
	if req.StartDate != nil {
		if *req.StartDate == "" {
			c.StartDate = nil
		} else {
			parsed := parseDate(*req.StartDate)
			if parsed == nil {
				a.error(w, http.StatusBadRequest, "bad_request", "start_date must be formatted YYYY-MM-DD")
				return
			}
			c.StartDate = parsed
		}
	}
	if req.DurationDays != nil {
		c.DurationDays = req.DurationDays
	}
	if c.Name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name cannot be empty")
		return
	}

	err = a.SQL.QueryRow(ctx, sqlinline.QUpdateCampaign, c.ID,
		c.Name, c.Message, c.CallToAction, c.TargetRegion, c.TargetAudience,
		c.BrandImages, c.StartDate, c.DurationDays).Scan(&c.UpdatedAt)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "not_found", "campaign not found")
		return
	}
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, renderCampaign(*c))
}

// CampaignsDelete removes a campaign, its dependent rows via cascade, and the
// image folders of its posts. Folder cleanup is best effort.
func (a *App) CampaignsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := requireUUID(id); err != nil {
		a.domainError(w, err)
		return
	}
	ctx := r.Context()

	folders := []string{}
	rows, err := a.SQL.Query(ctx, sqlinline.QSelectPostFoldersByCampaign, id)
	if err != nil {
		a.domainError(w, err)
		return
	}
	for rows.Next() {
		var folder string
		if err := rows.Scan(&folder); err != nil {
			continue
		}
		if folder != "" {
			folders = append(folders, folder)
		}
	}
	rows.Close()

	if _, err := scanString(a.SQL.QueryRow(ctx, sqlinline.QDeleteCampaign, id)); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "campaign not found")
			return
		}
		a.domainError(w, err)
		return
	}

	for _, folder := range folders {
		if err := a.Store.RemoveDir(folder); err != nil {
			a.Logger.Warn().Err(err).Str("folder", folder).Msg("http: post folder cleanup failed")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// CampaignsProducts lists the product catalog of one campaign.
func (a *App) CampaignsProducts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()
	if err := a.campaignExists(ctx, id); err != nil {
		a.domainError(w, err)
		return
	}

	products, err := a.listProducts(ctx, id)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, products)
}

// CampaignsAvailableImages returns everything selectable as a generation
// source for one campaign: its products and its non-video mood media.
func (a *App) CampaignsAvailableImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()
	if err := a.campaignExists(ctx, id); err != nil {
		a.domainError(w, err)
		return
	}

	products, err := a.listProducts(ctx, id)
	if err != nil {
		a.domainError(w, err)
		return
	}

	rows, err := a.SQL.Query(ctx, sqlinline.QListMoodMediaByCampaign, id)
	if err != nil {
		a.domainError(w, err)
		return
	}
	defer rows.Close()

	moodImages := []map[string]any{}
	for rows.Next() {
		m, err := scanMood(rows)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("http: skipping mood media row")
			continue
		}
		if m.MediaType != domain.MoodMediaImage {
			continue
		}
		moodImages = append(moodImages, renderMood(m))
	}
	if err := rows.Err(); err != nil {
		a.domainError(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"products":    products,
		"mood_images": moodImages,
	})
}

// buildCampaign turns a decoded request into a campaign ready for insert:
// region fallback, required-field validation, image ref normalization and
// date parsing.
func (a *App) buildCampaign(r *http.Request, req campaignRequest) (*domain.Campaign, error) {
	region := strings.TrimSpace(req.TargetRegion)
	if region == "" {
		region = middleware.RegionFromContext(r.Context())
	}

	missing := []string{}
	for field, value := range map[string]string{
		"name":             req.Name,
		"campaign_message": req.Message,
		"target_region":    region,
		"target_audience":  req.TargetAudience,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", domain.ErrInvalidInput, joinSorted(missing))
	}

	var startDate *time.Time
	if req.StartDate != "" {
		startDate = parseDate(req.StartDate)
		if startDate == nil {
			return nil, fmt.Errorf("%w: start_date must be formatted YYYY-MM-DD", domain.ErrInvalidInput)
		}
	}

	return &domain.Campaign{
		Name:           strings.TrimSpace(req.Name),
		Message:        req.Message,
		CallToAction:   req.CallToAction,
		TargetRegion:   region,
		TargetAudience: req.TargetAudience,
		BrandImages:    domain.EncodeImageList(a.processImageList(r.Context(), req.BrandImages)),
		StartDate:      startDate,
		DurationDays:   req.DurationDays,
	}, nil
}

func (a *App) insertCampaign(ctx context.Context, c *domain.Campaign) error {
	err := a.SQL.QueryRow(ctx, sqlinline.QInsertCampaign,
		c.Name, c.Message, c.CallToAction, c.TargetRegion, c.TargetAudience,
		c.BrandImages, c.StartDate, c.DurationDays).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (a *App) loadCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	if err := requireUUID(id); err != nil {
		return nil, err
	}
	c, err := scanCampaign(a.SQL.QueryRow(ctx, sqlinline.QSelectCampaignByID, id))
	if infra.IsNoRows(err) {
		return nil, fmt.Errorf("%w: campaign %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	return &c, nil
}

// campaignExists is the cheap existence probe used by sub-resource listings.
func (a *App) campaignExists(ctx context.Context, id string) error {
	if err := requireUUID(id); err != nil {
		return err
	}
	if _, err := scanString(a.SQL.QueryRow(ctx, sqlinline.QSelectCampaignNameByID, id)); err != nil {
		if infra.IsNoRows(err) {
			return fmt.Errorf("%w: campaign %s", domain.ErrNotFound, id)
		}
		return fmt.Errorf("check campaign: %w", err)
	}
	return nil
}

func (a *App) listProducts(ctx context.Context, campaignID string) ([]map[string]any, error) {
	rows, err := a.SQL.Query(ctx, sqlinline.QListProductsByCampaign, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("http: skipping product row")
			continue
		}
		out = append(out, renderProduct(p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func scanString(s scanner) (string, error) {
	var v string
	err := s.Scan(&v)
	return v, err
}

// joinSorted keeps missing-field messages deterministic regardless of map
// iteration order.
func joinSorted(fields []string) string {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}
