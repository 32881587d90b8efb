package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/sqlinline"
	"adforge/internal/storage"
)

var productRequiredFields = []string{"name", "campaign_id"}

type productRequest struct {
	CampaignID  string `json:"campaign_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImagePath   string `json:"image_path"`
}

// ProductsList returns products, filtered to one campaign when campaign_id is
// given.
func (a *App) ProductsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if campaignID := r.URL.Query().Get("campaign_id"); campaignID != "" {
		if err := requireUUID(campaignID); err != nil {
			a.domainError(w, err)
			return
		}
		products, err := a.listProducts(ctx, campaignID)
		if err != nil {
			a.domainError(w, err)
			return
		}
		a.json(w, http.StatusOK, products)
		return
	}

	rows, err := a.SQL.Query(ctx, sqlinline.QListProducts)
	if err != nil {
		a.domainError(w, err)
		return
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
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, out)
}

// ProductsValidate checks a single product draft without persisting it.
func (a *App) ProductsValidate(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}

	missing := []string{}
	for _, field := range productRequiredFields {
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

// ProductsBatchValidate validates a whole list of drafts at once, splitting
// them into valid and invalid with per-item error strings.
func (a *App) ProductsBatchValidate(w http.ResponseWriter, r *http.Request) {
	items := []map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "payload must be a json array of products")
		return
	}

	valid := []map[string]any{}
	invalid := []map[string]any{}
	for i, item := range items {
		missing := []string{}
		for _, field := range productRequiredFields {
			if strings.TrimSpace(stringField(item, field)) == "" {
				missing = append(missing, field)
			}
		}
		if len(missing) == 0 {
			valid = append(valid, item)
			continue
		}
		invalid = append(invalid, map[string]any{
			"index":  i,
			"data":   item,
			"errors": "Missing fields: " + strings.Join(missing, ", "),
		})
	}

	a.json(w, http.StatusOK, map[string]any{
		"valid_products":   valid,
		"invalid_products": invalid,
		"is_complete":      len(invalid) == 0,
	})
}

// ProductsBatch creates many products in one call. Everything is validated up
// front; if an insert still fails midway, the already-created rows of this
// batch are deleted again so the call stays all-or-nothing.
func (a *App) ProductsBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Products []productRequest `json:"products"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}
	if len(req.Products) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "products list is empty")
		return
	}

	ctx := r.Context()
	for i, p := range req.Products {
		if strings.TrimSpace(p.Name) == "" {
			a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("products[%d]: name is required", i))
			return
		}
		if err := requireUUID(p.CampaignID); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("products[%d]: malformed campaign_id", i))
			return
		}
	}
	checked := map[string]bool{}
	for _, p := range req.Products {
		if checked[p.CampaignID] {
			continue
		}
		checked[p.CampaignID] = true
		if err := a.campaignExists(ctx, p.CampaignID); err != nil {
			a.domainError(w, err)
			return
		}
	}

	created := []domain.Product{}
	for _, pr := range req.Products {
		p, err := a.insertProduct(ctx, pr.CampaignID, pr)
		if err != nil {
			for _, c := range created {
				if _, derr := scanString(a.SQL.QueryRow(ctx, sqlinline.QDeleteProduct, c.ID)); derr != nil {
					a.Logger.Error().Err(derr).Str("product_id", c.ID).Msg("http: batch rollback failed")
				}
			}
			a.domainError(w, err)
			return
		}
		created = append(created, p)
	}

	out := make([]map[string]any, 0, len(created))
	for _, p := range created {
		out = append(out, renderProduct(p))
	}
	a.json(w, http.StatusCreated, out)
}

// ProductsCreate persists one product under an existing campaign.
func (a *App) ProductsCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}

	ctx := r.Context()
	if err := a.campaignExists(ctx, req.CampaignID); err != nil {
		a.domainError(w, err)
		return
	}
	p, err := a.insertProduct(ctx, req.CampaignID, req)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, renderProduct(p))
}

// ProductsGet returns one product by id.
func (a *App) ProductsGet(w http.ResponseWriter, r *http.Request) {
	p, err := a.loadProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, renderProduct(*p))
}

// ProductsUpdate applies a partial update to a product.
func (a *App) ProductsUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		ImagePath   *string `json:"image_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json payload")
		return
	}

	ctx := r.Context()
	p, err := a.loadProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.ImagePath != nil {
		p.ImagePath = a.processImageRef(ctx, *req.ImagePath)
	}
	if p.Name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name cannot be empty")
		return
	}

	err = a.SQL.QueryRow(ctx, sqlinline.QUpdateProduct, p.ID, p.Name, p.Description, p.ImagePath).
		Scan(&p.UpdatedAt)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, renderProduct(*p))
}

// ProductsDelete removes the product row. The image file stays: it may be
// referenced as a generation source elsewhere, and campaign deletion sweeps
// folders anyway.
func (a *App) ProductsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := requireUUID(id); err != nil {
		a.domainError(w, err)
		return
	}
	if _, err := scanString(a.SQL.QueryRow(r.Context(), sqlinline.QDeleteProduct, id)); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		a.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProductsRegenerateImage renders a fresh product image from the product's
// name and description, stores it and points image_path at it. The body is
// optional; user_prompt adds style direction.
func (a *App) ProductsRegenerateImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserPrompt string `json:"user_prompt"`
	}
	// An empty body means default styling, so decode failures are not fatal.
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctx := r.Context()
	p, err := a.loadProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}

	key, err := a.ProductImages.Render(ctx, p, req.UserPrompt, a.requestID(r))
	if err != nil {
		a.domainError(w, err)
		return
	}

	p.ImagePath = storage.StaticRef(key)
	err = a.SQL.QueryRow(ctx, sqlinline.QUpdateProductImage, p.ID, p.ImagePath).Scan(&p.UpdatedAt)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, renderProduct(*p))
}

func (a *App) insertProduct(ctx context.Context, campaignID string, req productRequest) (domain.Product, error) {
	p := domain.Product{
		CampaignID:  campaignID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ImagePath:   a.processImageRef(ctx, req.ImagePath),
	}
	err := a.SQL.QueryRow(ctx, sqlinline.QInsertProduct, p.CampaignID, p.Name, p.Description, p.ImagePath).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (a *App) loadProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := requireUUID(id); err != nil {
		return nil, err
	}
	p, err := scanProduct(a.SQL.QueryRow(ctx, sqlinline.QSelectProductByID, id))
	if infra.IsNoRows(err) {
		return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	return &p, nil
}
