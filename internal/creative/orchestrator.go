package creative

import (
	"context"
	"fmt"
	"math/rand"
	"path"

	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/sqlinline"
	"adforge/internal/storage"
)

// GenerateRequest is one full post-generation run.
type GenerateRequest struct {
	CampaignID   string
	SourceImages []string
	Prompt       string
	AspectRatios []string
	RequestID    string
}

// fallbackProductName labels the copy context when no source ref maps back to
// a stored product.
const fallbackProductName = "Featured content"

// GenerationOrchestrator sequences a generation run: load campaign, resolve
// sources, one copy call, then per-ratio creative generation and compositing,
// ending in a single post insert. External calls inside one run are strictly
// sequential; independent runs share nothing but the injected collaborators.
type GenerationOrchestrator struct {
	sql      infra.SQLExecutor
	store    *storage.FileStore
	resolver *SourceImageResolver
	copyGen  *CopyGenerator
	creative *CreativeGenerator
	comp     *Compositor
	logger   infra.Logger

	// pickIndex selects the brand logo once per run. Swapped out in tests for
	// a deterministic pick.
	pickIndex func(n int) int
}

func NewGenerationOrchestrator(
	sql infra.SQLExecutor,
	store *storage.FileStore,
	resolver *SourceImageResolver,
	copyGen *CopyGenerator,
	creativeGen *CreativeGenerator,
	comp *Compositor,
	logger infra.Logger,
) *GenerationOrchestrator {
	return &GenerationOrchestrator{
		sql:       sql,
		store:     store,
		resolver:  resolver,
		copyGen:   copyGen,
		creative:  creativeGen,
		comp:      comp,
		logger:    logger,
		pickIndex: rand.Intn,
	}
}

// Generate runs the whole pipeline and persists exactly one post. Nothing is
// written to the database until every variant succeeded; a failure at any step
// leaves campaign and products untouched.
func (o *GenerationOrchestrator) Generate(ctx context.Context, req GenerateRequest) (*domain.Post, error) {
	ratios := req.AspectRatios
	if len(ratios) == 0 {
		ratios = []string{"1:1"}
	}
	if err := domain.ValidatePostRatios(ratios); err != nil {
		return nil, err
	}
	if len(req.SourceImages) == 0 {
		return nil, fmt.Errorf("%w: no valid source images", domain.ErrInvalidInput)
	}

	campaign, err := o.loadCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	resolved, err := o.resolver.Resolve(ctx, campaign.ID, req.SourceImages)
	if err != nil {
		return nil, err
	}

	productName, productDesc := fallbackProductName, ""
	if resolved.ProductID != nil {
		if product, err := o.loadProduct(ctx, *resolved.ProductID); err == nil {
			productName, productDesc = product.Name, product.Description
		}
	}

	copyText, err := o.copyGen.Generate(ctx, CopyRequest{
		CampaignMessage:    campaign.Message,
		CallToAction:       campaign.CallToAction,
		TargetRegion:       campaign.TargetRegion,
		TargetAudience:     campaign.TargetAudience,
		ProductName:        productName,
		ProductDescription: productDesc,
		UserPrompt:         req.Prompt,
		RequestID:          req.RequestID,
	})
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		CampaignID:       campaign.ID,
		ProductID:        resolved.ProductID,
		MoodID:           resolved.MoodID,
		SourceImages:     domain.EncodeImageList(req.SourceImages),
		Headline:         copyText.Headline,
		BodyText:         copyText.BodyText,
		Caption:          copyText.Caption,
		TextColor:        copyText.TextColor,
		GenerationPrompt: req.Prompt,
		ImageFolder:      path.Join(infra.PostsDir, PostFolderName(campaign.Name, copyText.Headline)),
	}

	if err := o.renderVariants(ctx, post, renderContext{
		Campaign:  campaign,
		Sources:   resolved.Sources,
		Prompt:    req.Prompt,
		Ratios:    ratios,
		RequestID: req.RequestID,
	}); err != nil {
		return nil, err
	}

	err = o.sql.QueryRow(ctx, sqlinline.QInsertPost,
		post.CampaignID, post.ProductID, post.MoodID, post.SourceImages,
		post.Headline, post.BodyText, post.Caption, post.TextColor,
		post.Image1x1, post.Image16x9, post.Image9x16,
		post.GenerationPrompt, post.ImageFolder,
	).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	o.logger.Info().
		Str("request_id", req.RequestID).
		Str("post_id", post.ID).
		Str("campaign_id", post.CampaignID).
		Int("variants", len(ratios)).
		Msg("creative: post generated")
	return post, nil
}

// RegenerateImages rebuilds every image variant of an existing post while its
// finalized copy stays untouched. The previous folder is removed best effort;
// a cleanup failure is logged and the run continues.
func (o *GenerationOrchestrator) RegenerateImages(ctx context.Context, postID, prompt, requestID string) (*domain.Post, error) {
	post, err := o.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	campaign, err := o.loadCampaign(ctx, post.CampaignID)
	if err != nil {
		return nil, err
	}

	if prompt == "" {
		prompt = post.GenerationPrompt
	}

	refs := domain.DecodeImageList(post.SourceImages)
	resolved := &ResolvedSet{}
	if len(refs) > 0 {
		resolved, err = o.resolver.Resolve(ctx, campaign.ID, refs)
		if err != nil {
			return nil, err
		}
	}

	ratios := make([]string, 0, len(domain.PostAspectRatios))
	for _, ratio := range domain.PostAspectRatios {
		if post.VariantPath(ratio) != nil {
			ratios = append(ratios, ratio)
		}
	}
	if len(ratios) == 0 {
		ratios = []string{"1:1"}
	}

	if post.ImageFolder != "" {
		if err := o.store.RemoveDir(post.ImageFolder); err != nil {
			o.logger.Warn().
				Err(err).
				Str("post_id", post.ID).
				Str("folder", post.ImageFolder).
				Msg("creative: previous image folder not removed")
		}
	}

	post.Image1x1, post.Image16x9, post.Image9x16 = nil, nil, nil
	post.GenerationPrompt = prompt
	post.ImageFolder = path.Join(infra.PostsDir, PostFolderName(campaign.Name, post.Headline))

	if err := o.renderVariants(ctx, post, renderContext{
		Campaign:  campaign,
		Sources:   resolved.Sources,
		Prompt:    prompt,
		Ratios:    ratios,
		RequestID: requestID,
	}); err != nil {
		return nil, err
	}

	var updatedID string
	err = o.sql.QueryRow(ctx, sqlinline.QUpdatePostImages,
		post.ID, post.Image1x1, post.Image16x9, post.Image9x16,
		post.GenerationPrompt, post.ImageFolder,
	).Scan(&updatedID)
	if err != nil {
		return nil, fmt.Errorf("update post images: %w", err)
	}

	o.logger.Info().
		Str("request_id", requestID).
		Str("post_id", post.ID).
		Int("variants", len(ratios)).
		Msg("creative: post images regenerated")
	return post, nil
}

type renderContext struct {
	Campaign  *domain.Campaign
	Sources   []ResolvedSource
	Prompt    string
	Ratios    []string
	RequestID string
}

// renderVariants runs the generate-once-adapt-thereafter loop and fills the
// post's variant paths. One logo and one base creative serve every ratio.
func (o *GenerationOrchestrator) renderVariants(ctx context.Context, post *domain.Post, rc renderContext) error {
	logo := o.chooseLogo(rc.Campaign)

	var base *BaseCreative
	for i, ratio := range rc.Ratios {
		var (
			variant *BaseCreative
			err     error
		)
		if i == 0 {
			base, err = o.creative.GenerateBase(ctx, CreativeRequest{
				CampaignMessage: rc.Campaign.Message,
				Headline:        post.Headline,
				UserPrompt:      rc.Prompt,
				Sources:         rc.Sources,
				RequestID:       rc.RequestID,
			}, ratio)
			variant = base
		} else {
			variant, err = o.creative.AdaptToRatio(ctx, base, post.Headline, ratio, rc.RequestID)
		}
		if err != nil {
			return err
		}

		relPath, err := o.comp.ComposePostImage(ctx, ComposeParams{
			AspectRatio: ratio,
			Creative:    variant,
			Logo:        logo,
			Folder:      post.ImageFolder,
			Filename:    domain.VariantFilename(ratio),
		})
		if err != nil {
			return err
		}
		post.SetVariantPath(ratio, relPath)
	}
	return nil
}

// chooseLogo picks one brand image for the whole run. An unreadable logo is
// dropped with a warning so the post still renders.
func (o *GenerationOrchestrator) chooseLogo(campaign *domain.Campaign) []byte {
	brands := campaign.BrandImageList()
	if len(brands) == 0 {
		return nil
	}
	ref := brands[o.pickIndex(len(brands))]
	key := o.store.KeyFromURL(ref)
	if key == "" {
		o.logger.Warn().Str("ref", ref).Msg("creative: brand image ref outside storage root")
		return nil
	}
	data, err := o.store.Read(key)
	if err != nil {
		o.logger.Warn().Err(err).Str("ref", ref).Msg("creative: brand image unreadable")
		return nil
	}
	return data
}

func (o *GenerationOrchestrator) loadCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	var c domain.Campaign
	err := o.sql.QueryRow(ctx, sqlinline.QSelectCampaignByID, id).Scan(
		&c.ID, &c.Name, &c.Message, &c.CallToAction, &c.TargetRegion, &c.TargetAudience,
		&c.BrandImages, &c.StartDate, &c.DurationDays, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("%w: campaign %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	return &c, nil
}

func (o *GenerationOrchestrator) loadProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := o.sql.QueryRow(ctx, sqlinline.QSelectProductByID, id).Scan(
		&p.ID, &p.CampaignID, &p.Name, &p.Description, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	return &p, nil
}

func (o *GenerationOrchestrator) loadPost(ctx context.Context, id string) (*domain.Post, error) {
	var p domain.Post
	err := o.sql.QueryRow(ctx, sqlinline.QSelectPostByID, id).Scan(
		&p.ID, &p.CampaignID, &p.ProductID, &p.MoodID, &p.SourceImages,
		&p.Headline, &p.BodyText, &p.Caption, &p.TextColor,
		&p.Image1x1, &p.Image16x9, &p.Image9x16,
		&p.GenerationPrompt, &p.ImageFolder, &p.CreatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("%w: post %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("load post: %w", err)
	}
	return &p, nil
}
