package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"adforge/internal/http/handlers"
	"adforge/internal/middleware"
)

// NewRouter wires the full API surface. Every generation endpoint shares one
// per-IP rate limiter, since they all draw on the same model quota.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.CORSOriginList()),
		middleware.Region(lookup),
	)

	generate := middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute)

	r.Get("/healthz", app.Health)
	r.Get("/docs", app.OpenAPIDocs)
	r.Get(handlers.SpecRoute, app.OpenAPIJSON)

	r.Route("/api", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", app.CampaignsList)
			r.Post("/", app.CampaignsCreate)
			r.Post("/validate", app.CampaignsValidate)
			r.Post("/with-products", app.CampaignsWithProducts)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.CampaignsGet)
				r.Put("/", app.CampaignsUpdate)
				r.Delete("/", app.CampaignsDelete)
				r.Get("/products", app.CampaignsProducts)
				r.Get("/available-images", app.CampaignsAvailableImages)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.ProductsList)
			r.Post("/", app.ProductsCreate)
			r.Post("/validate", app.ProductsValidate)
			r.Post("/batch", app.ProductsBatch)
			r.Post("/batch/validate", app.ProductsBatchValidate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.ProductsGet)
				r.Put("/", app.ProductsUpdate)
				r.Delete("/", app.ProductsDelete)
				r.With(generate).Post("/regenerate-image", app.ProductsRegenerateImage)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", app.PostsList)
			r.With(generate).Post("/generate", app.PostsGenerate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.PostsGet)
				r.Put("/", app.PostsUpdate)
				r.Delete("/", app.PostsDelete)
				r.Get("/download", app.PostsDownload)
				r.With(generate).Post("/regenerate-images", app.PostsRegenerateImages)
			})
		})

		r.Route("/moods", func(r chi.Router) {
			r.Get("/", app.MoodsList)
			r.With(generate).Post("/images/generate", app.MoodsGenerateImages)
			r.With(generate).Post("/videos/generate", app.MoodsGenerateVideo)
			r.Post("/upload", app.MoodsUpload)
			r.Delete("/{id}", app.MoodsDelete)
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/upload", app.MediaUpload)
			r.Post("/upload-multiple", app.MediaUploadMultiple)
		})

		r.Route("/deploy", func(r chi.Router) {
			r.Post("/schedule-post", app.DeploySchedulePost)
			r.Get("/scheduled-posts", app.DeployScheduledPosts)
			r.Delete("/scheduled-posts/{id}", app.DeployCancel)
		})
	})

	// Generated assets and uploads, served straight off the storage root.
	fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(app.Store.BasePath())))
	r.Get("/static/*", fileServer.ServeHTTP)

	return r
}
