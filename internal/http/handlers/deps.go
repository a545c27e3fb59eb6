package handlers

import (
	"alquitones/internal/config"
	"alquitones/internal/remote"
	"alquitones/internal/repos"
	"alquitones/internal/services"
)

type Deps struct {
	Auth    *services.AuthService
	Catalog *services.CatalogService
	Res     *services.ReservationService

	// MediaDir backs /media; empty leaves the route unmounted.
	MediaDir string

	AuthHandler        *AuthHandler
	SearchHandler      *SearchHandler
	ProductHandler     *ProductHandler
	CategoryHandler    *CategoryHandler
	InventoryHandler   *InventoryHandler
	ReservationHandler *ReservationHandler
	FavoritesHandler   *FavoritesHandler
	AdminHandler       *AdminHandler
}

// NewDeps wires repos, services and handlers over one store. Sessions live in
// their own storage under cfg.SessionPrefix.
func NewDeps(st *repos.Store, sessions repos.Storage, cfg config.Config) *Deps {
	catRepo := repos.NewCategoryRepo(st)
	prodRepo := repos.NewProductRepo(st)
	specRepo := repos.NewSpecificationRepo(st)
	userRepo := repos.NewUserRepo(st)
	resRepo := repos.NewReservationRepo(st)

	authSvc := services.NewAuthService(userRepo, sessions, cfg.SessionPrefix)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, specRepo)
	availSvc := services.NewAvailabilityService(repos.NewInventoryRepo(st), st.Today)
	resSvc := services.NewReservationService(resRepo, st.Today)
	ratingSvc := services.NewRatingService(repos.NewRatingRepo(st))
	favSvc := services.NewFavoritesService(repos.NewFavoriteRepo(st))
	adminSvc := services.NewAdminService(userRepo, catalogSvc, resRepo)

	local := &remote.Local{Catalog: catalogSvc, Avail: availSvc, Res: resSvc, Rates: ratingSvc, Admin: adminSvc}
	apiFor := func(string) remote.API { return local }
	if cfg.RemoteAPIURL != "" {
		client := remote.NewClient(cfg.RemoteAPIURL, remote.NewHTTPClient(cfg.RemoteTimeout))
		apiFor = func(sid string) remote.API {
			return remote.NewFallback(client.WithSession(sid), local)
		}
	}

	return &Deps{
		Auth:    authSvc,
		Catalog: catalogSvc,
		Res:     resSvc,

		MediaDir: cfg.MediaDir,

		AuthHandler:        &AuthHandler{Auth: authSvc},
		SearchHandler:      &SearchHandler{API: apiFor},
		ProductHandler:     &ProductHandler{API: apiFor},
		CategoryHandler:    &CategoryHandler{Catalog: catalogSvc},
		InventoryHandler:   &InventoryHandler{Avail: availSvc, API: apiFor},
		ReservationHandler: &ReservationHandler{Res: resSvc, API: apiFor},
		FavoritesHandler:   &FavoritesHandler{Favs: favSvc},
		AdminHandler: &AdminHandler{
			Catalog:    catalogSvc,
			Admin:      adminSvc,
			Res:        resSvc,
			API:        apiFor,
			EnrichSize: cfg.EnrichBatch,
		},
	}
}
