// Package server assembles the fiber application and its route table.
package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"estatehub_backend/internal/account"
	"estatehub_backend/internal/agent"
	"estatehub_backend/internal/catalog"
	"estatehub_backend/internal/controller"
	"estatehub_backend/internal/inquiry"
	"estatehub_backend/internal/middleware"
	"estatehub_backend/internal/search"
	"estatehub_backend/pkg/metrics"
)

type Deps struct {
	Accounts  *account.Service
	Agents    *agent.Service
	Catalog   *catalog.Service
	Inquiries *inquiry.Service
	Search    *search.Service

	// MediaDir is served under /media when images live on local disk.
	MediaDir string
	// Ping reports database health for /health.
	Ping func() error
	// Collect refreshes gauges read at scrape time.
	Collect func()
}

func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: controller.ErrorHandler,
		BodyLimit:    32 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(metrics.Middleware())
	app.Use(middleware.RequestLogger())

	scrape := metrics.Handler()
	app.Get("/metrics", func(c *fiber.Ctx) error {
		if deps.Collect != nil {
			deps.Collect()
		}
		return scrape(c)
	})
	app.Get("/health", health(deps.Ping))
	if deps.MediaDir != "" {
		app.Static("/media", deps.MediaDir)
	}

	setupRoutes(app, deps)
	return app
}

func health(ping func() error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ping != nil {
			if err := ping(); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

func setupRoutes(app *fiber.App, deps Deps) {
	authRequired := middleware.AuthMiddleware(deps.Accounts)
	authOptional := middleware.OptionalAuth(deps.Accounts)

	authCtl := controller.NewAuthController(deps.Accounts)
	profileCtl := controller.NewProfileController(deps.Accounts)
	listingCtl := controller.NewListingController(deps.Catalog)
	inquiryCtl := controller.NewInquiryController(deps.Inquiries)
	agentCtl := controller.NewAgentController(deps.Agents)
	pageCtl := controller.NewPageController(deps.Search)
	adminCtl := controller.NewAdminController(deps.Accounts, deps.Agents, deps.Catalog)

	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/register", authCtl.Register)
	auth.Post("/login", authCtl.Login)

	api.Get("/me", authRequired, authCtl.GetMe)

	// Profile Routes
	profile := api.Group("/profile", authRequired)
	profile.Get("/", profileCtl.GetProfile)
	profile.Put("/", profileCtl.UpdateProfile)
	profile.Post("/avatar", profileCtl.UploadAvatar)
	profile.Get("/logins", profileCtl.GetLoginHistory)

	// Public pages
	api.Get("/home", pageCtl.Home)
	api.Get("/search", pageCtl.Search)
	api.Get("/pages/:page", pageCtl.LegalPage)

	// Reference data: public reads, superuser writes under /admin
	admin := api.Group("/admin", authRequired, middleware.RequireAdmin())
	superuser := middleware.RequireSuperuser()
	controller.NewReferenceController(deps.Catalog.Categories()).Mount(api, admin, "/categories", superuser)
	controller.NewReferenceController(deps.Catalog.Locations()).Mount(api, admin, "/locations", superuser)
	controller.NewReferenceController(deps.Catalog.Amenities()).Mount(api, admin, "/amenities", superuser)
	controller.NewReferenceController(deps.Catalog.PropertyTypes()).Mount(api, admin, "/property-types", superuser)

	// Listing Routes
	listings := api.Group("/listings")
	listings.Get("/", listingCtl.ListListings)
	listings.Get("/:slug", listingCtl.GetListing)
	listings.Post("/", authRequired, listingCtl.CreateListing)
	listings.Put("/:slug", authRequired, listingCtl.UpdateListing)
	listings.Post("/:slug/images", authRequired, listingCtl.UploadListingImages)
	listings.Put("/:slug/images/:id/main", authRequired, listingCtl.SetMainImage)
	listings.Delete("/:slug/images/:id", authRequired, listingCtl.DeleteListingImage)
	listings.Post("/:slug/inquiries", authRequired, inquiryCtl.CreateInquiry)

	// Inquiry Routes
	inquiries := api.Group("/inquiries", authRequired)
	inquiries.Get("/", inquiryCtl.GetMyInquiries)
	inquiries.Get("/:id", inquiryCtl.GetInquiry)
	inquiries.Post("/:id/respond", inquiryCtl.RespondInquiry)
	inquiries.Put("/:id/status", inquiryCtl.UpdateInquiryStatus)

	// Agent Routes; fixed paths go before /:id
	agents := api.Group("/agents")
	agents.Get("/dashboard", authRequired, middleware.RequireAgent(), agentCtl.Dashboard)
	agents.Put("/me", authRequired, agentCtl.UpdateMyAgentProfile)
	agents.Get("/", authOptional, agentCtl.ListAgents)
	agents.Get("/:id", agentCtl.GetAgent)
	agents.Post("/", authRequired, middleware.RequireAdmin(), agentCtl.CreateAgent)
	agents.Post("/:id/deactivate", authRequired, middleware.RequireAdmin(), agentCtl.DeactivateAgent)
	agents.Post("/:id/ratings", authRequired, agentCtl.RateAgent)

	// Admin Routes
	admin.Get("/users", adminCtl.ListUsers)
	admin.Put("/users/:id", adminCtl.UpdateUser)
	admin.Get("/agents", adminCtl.ListAgents)
	admin.Put("/agents/:id", adminCtl.UpdateAgent)
	admin.Get("/listings", adminCtl.ListListings)
	admin.Put("/listings/:id", adminCtl.ModerateListing)
	admin.Put("/listings/:id/location", adminCtl.AssignListingLocation)
	admin.Post("/maintenance/clean-prices", superuser, adminCtl.CleanPrices)
}
