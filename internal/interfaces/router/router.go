package router

import (
	"context"

	"datahub-backend/internal/app"
	healthsvc "datahub-backend/internal/application/health"
	"datahub-backend/internal/config"
	adviserhandler "datahub-backend/internal/interfaces/handlers/adviser"
	authhandler "datahub-backend/internal/interfaces/handlers/auth"
	companyhandler "datahub-backend/internal/interfaces/handlers/company"
	contacthandler "datahub-backend/internal/interfaces/handlers/contact"
	datasethandler "datahub-backend/internal/interfaces/handlers/dataset"
	exportwinhandler "datahub-backend/internal/interfaces/handlers/exportwin"
	healthhandler "datahub-backend/internal/interfaces/handlers/health"
	interactionhandler "datahub-backend/internal/interfaces/handlers/interaction"
	investmenthandler "datahub-backend/internal/interfaces/handlers/investment"
	searchhandler "datahub-backend/internal/interfaces/handlers/search"
	"datahub-backend/internal/middleware"
	"datahub-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type depsPinger struct {
	deps *app.Deps
}

func (p depsPinger) Ping(ctx context.Context) error {
	return p.deps.Ping(ctx)
}

// CreateApp builds the Fiber app with global middleware and every route.
func CreateApp(cfg *config.Config, deps *app.Deps, rdb *redis.Client) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	fiberApp.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	fiberApp.Use(middleware.Session(rdb))
	fiberApp.Use(middleware.HealthMarker(rdb))
	fiberApp.Use(middleware.Tracing())
	fiberApp.Use(middleware.RouteLogger())

	healthDeps := healthsvc.Dependencies{Database: depsPinger{deps: deps}}
	if deps.Search != nil {
		healthDeps.Search = deps.Search
	}
	hh := &healthhandler.Handlers{Rdb: rdb, Deps: healthDeps, HealthAdminKey: cfg.HealthAdminKey}
	fiberApp.Get("/", hh.Dashboard)
	fiberApp.Get("/reset", hh.Reset)
	fiberApp.Get("/health/json", hh.JSON)
	fiberApp.Get("/health/errors", hh.Errors)

	svc := app.NewServices(cfg, deps)
	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	ah := &authhandler.Handlers{Service: svc.Auth, Rdb: rdb, Config: sessionCfg}
	fiberApp.Post("/auth/login", ah.Login)
	fiberApp.Get("/whoami", ah.WhoAmI)
	fiberApp.Delete("/auth/logout", ah.Logout)

	// Write bodies of data routes are screened for markup. Auth routes are not.
	// The customer review link is public and must be registered before the authenticated group.
	ewh := &exportwinhandler.Handlers{Service: svc.ExportWin}
	guard := middleware.HTMLGuard()
	review := fiberApp.Group("/v4/export-win/review", guard)
	review.Get("/:token_pk", ewh.GetReview)
	review.Patch("/:token_pk", ewh.UpdateReview)
	review.Put("/:token_pk", ewh.ReviewNotAllowed)
	review.Post("/:token_pk", ewh.ReviewNotAllowed)
	review.Delete("/:token_pk", ewh.ReviewNotAllowed)

	can := middleware.AuthorizePermission

	adh := &adviserhandler.Handlers{Service: svc.Adviser}
	adg := fiberApp.Group("/adviser", middleware.RequireAuth())
	adg.Get("/", adh.List)
	adg.Get("/:id", adh.Get)

	ch := &companyhandler.Handlers{Service: svc.Company}
	cg := fiberApp.Group("/v4/company", middleware.RequireAuth(), guard)
	cg.Get("/", can(constants.ViewCompany), ch.List)
	cg.Post("/", can(constants.ChangeCompany), ch.Create)
	cg.Get("/:id", can(constants.ViewCompany), ch.Get)
	cg.Patch("/:id", can(constants.ChangeCompany), ch.Update)
	cg.Post("/:id/archive", can(constants.ChangeCompany), ch.Archive)
	cg.Post("/:id/unarchive", can(constants.ChangeCompany), ch.Unarchive)
	cg.Patch("/:id/export-detail", can(constants.ChangeCompany), ch.UpdateExportDetail)

	cth := &contacthandler.Handlers{Service: svc.Contact}
	ctg := fiberApp.Group("/v3/contact", middleware.RequireAuth(), guard)
	ctg.Get("/", can(constants.ViewContact), cth.List)
	ctg.Post("/", can(constants.ChangeContact), cth.Create)
	ctg.Get("/:id", can(constants.ViewContact), cth.Get)
	ctg.Patch("/:id", can(constants.ChangeContact), cth.Update)
	ctg.Post("/:id/archive", can(constants.ChangeContact), cth.Archive)

	ih := &interactionhandler.Handlers{Service: svc.Interaction}
	ig := fiberApp.Group("/v3/interaction", middleware.RequireAuth(), guard)
	ig.Get("/", can(constants.ViewInteraction), ih.List)
	ig.Post("/", can(constants.ChangeInteraction), ih.Create)
	ig.Get("/:id", can(constants.ViewInteraction), ih.Get)
	ig.Patch("/:id", can(constants.ChangeInteraction), ih.Update)

	ivh := &investmenthandler.Handlers{Service: svc.Investment}
	ivg := fiberApp.Group("/v3/investment", middleware.RequireAuth(), guard)
	ivg.Get("/", can(constants.ViewInvestment), ivh.List)
	ivg.Post("/", can(constants.ChangeInvestment), ivh.Create)
	ivg.Get("/:id", can(constants.ViewInvestment), ivh.Get)
	ivg.Patch("/:id", can(constants.ChangeInvestment), ivh.Update)
	ivg.Get("/:id/stage-log", can(constants.ViewInvestment), ivh.StageLog)
	fiberApp.Get("/v4/investment/:id/spi", middleware.RequireAuth(), can(constants.ViewInvestment), ivh.SPI)

	ewg := fiberApp.Group("/v4/export-win", middleware.RequireAuth(), guard)
	ewg.Get("/", can(constants.ViewExportWin), ewh.List)
	ewg.Post("/", can(constants.ChangeExportWin), ewh.Create)
	ewg.Get("/:id", can(constants.ViewExportWin), ewh.Get)
	ewg.Patch("/:id", can(constants.ChangeExportWin), ewh.Update)
	ewg.Post("/:id/resend", can(constants.ChangeExportWin), ewh.Resend)
	ewg.Post("/:id/soft-delete", can(constants.ExportWinAdmin), ewh.SoftDelete)
	ewg.Post("/:id/undelete", can(constants.ExportWinAdmin), ewh.Undelete)

	if deps.Search != nil {
		sh := &searchhandler.Handlers{Service: svc.Search}
		sg := fiberApp.Group("/v4/search", middleware.RequireAuth(), guard)
		sg.Post("/company/export", can(constants.ExportSearchResults), sh.ExportCompanies)
		sg.Post("/:entity", sh.Search)
	}

	dh := &datasethandler.Handlers{Service: svc.Dataset}
	dg := fiberApp.Group("/v4/dataset", middleware.RequireAuth(), can(constants.ViewDataset))
	dg.Get("/export-wins-dataset", dh.Wins)
	dg.Get("/export-wins-breakdowns-dataset", dh.Breakdowns)
	dg.Get("/export-wins-advisers-dataset", dh.Advisers)

	return fiberApp
}
