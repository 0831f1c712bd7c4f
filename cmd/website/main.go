package main

import (
	"context"
	"embed"
	"encoding/gob"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/awsconfig"
	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/mux"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/retrier"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/catgallery/cmd/website/internal/admin"
	"github.com/adampresley/catgallery/cmd/website/internal/cats"
	"github.com/adampresley/catgallery/cmd/website/internal/configuration"
	"github.com/adampresley/catgallery/cmd/website/internal/home"
	"github.com/adampresley/catgallery/cmd/website/internal/viewmodels"
	"github.com/adampresley/catgallery/pkg/catapi"
	"github.com/adampresley/catgallery/pkg/models"
	"github.com/adampresley/catgallery/pkg/services"
	_ "github.com/glebarez/sqlite"
	"github.com/rfberaldo/sqlz"
	"github.com/rfberaldo/sqlz/binds"
)

var (
	Version string = "development"
	appName string = "catgallery"

	//go:embed app
	appFS embed.FS

	//go:embed sql-migrations
	sqlMigrationsFs embed.FS

	config configuration.Config

	/* Services */
	archiveService   services.ArchiveServicer
	db               *sqlz.DB
	galleryService   services.GalleryServicer
	renderer         rendering.TemplateRenderer
	sessionService   sessions.Session[*models.Visitor]
	settingsService  services.SettingsServicer
	thumbnailService services.ThumbnailServicer

	/* Controllers */
	adminController admin.AdminController
	catController   cats.CatController
	homeController  home.HomeHandlers
)

func main() {
	var (
		err error
	)

	config = configuration.LoadConfig()
	setupLogger(&config, Version)

	slog.Info("configuration loaded",
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("loglevel", config.LogLevel),
		slog.String("host", config.Host),
		slog.String("apiURL", config.ApiURL),
		slog.String("awsEndpointUrl", config.AwsEndpointUrl),
		slog.String("awsRegion", config.AwsRegion),
	)

	if config.AdminPassword == "" {
		slog.Warn("no admin password is configured. admin login is disabled until ADMIN_PASSWORD is set")
	}

	slog.Debug("setting up...")

	shutdownCtx, cancel := context.WithCancel(context.Background())

	/*
	 * Setup services
	 */
	binds.Register("sqlite", binds.BindByDriver("sqlite3"))
	if db, err = sqlz.Connect("sqlite", config.DSN); err != nil {
		panic(err)
	}

	migrateDatabase()
	gob.Register(&models.Visitor{})

	cookieStore := sessions.NewCookieStore(config.CookieSecret)
	sessionService = sessions.NewSessionWrapper[*models.Visitor](cookieStore, "catgalleryvisitors", "visitor")

	awsConfig := &awsconfig.Config{
		Endpoint:        config.AwsEndpointUrl,
		Region:          config.AwsRegion,
		AccessKeyID:     config.AwsAccessKeyId,
		SecretAccessKey: config.AwsSecretAccessKey,
	}

	retrier.Retry(func() error {
		if err = awsConfig.Load(); err != nil {
			slog.Error("failed to load AWS config. trying again", "error", err)
			return err
		}

		return nil
	})

	if err != nil {
		panic(err)
	}

	s3Client, err := s3.NewClient(awsConfig)

	if err != nil {
		panic(err)
	}

	renderer, err = rendering.NewGoTemplateRenderer(rendering.GoTemplateRendererConfig{
		TemplateDir:       "app",
		TemplateExtension: ".html",
		TemplateFS:        appFS,
		PagesDir:          "pages",
	})

	if err != nil {
		panic(err)
	}

	apiTimeout := time.Duration(config.ApiTimeoutSeconds) * time.Second
	httpClient := &http.Client{Timeout: apiTimeout}

	settingsService = services.NewSettingsService(services.SettingsServiceConfig{
		DB:       db,
		Defaults: defaultSettings(&config),
	})

	galleryService = services.NewGalleryService(services.GalleryServiceConfig{
		HttpClient:      httpClient,
		Identity:        catapi.IdentityFunc(viewmodels.SubmitterIDFromContext),
		Logger:          slog.Default(),
		SettingsService: settingsService,
		Timeout:         apiTimeout,
	})

	thumbnailService = services.NewThumbnailService(services.ThumbnailServiceConfig{
		HttpClient: &http.Client{Timeout: time.Second * 30},
		MaxSize:    uint(config.ThumbnailSize),
	})

	archives := services.NewArchiveService(services.ArchiveServiceConfig{
		AwsRegion:       config.AwsRegion,
		Bucket:          config.AwsBucket,
		DownloadsFolder: config.DownloadsFolder,
		ExpirationDays:  config.DownloadExpirationDays,
		HttpClient:      &http.Client{Timeout: time.Minute * 2},
		MaxWorkers:      config.MaxDownloadWorkers,
		S3Client:        s3Client,
		ShutdownCtx:     shutdownCtx,
	})

	if err = archives.EnsureBucket(); err != nil {
		panic(err)
	}

	archiveService = archives

	/*
	 * Setup controllers
	 */
	adminController = admin.NewAdminController(admin.AdminControllerConfig{
		AdminPassword:   config.AdminPassword,
		GalleryService:  galleryService,
		Renderer:        renderer,
		SessionService:  sessionService,
		SettingsService: settingsService,
	})

	catController = cats.NewCatController(cats.CatControllerConfig{
		ArchiveService:   archiveService,
		GalleryService:   galleryService,
		Renderer:         renderer,
		ThumbnailService: thumbnailService,
	})

	homeController = home.NewHomeController(home.HomeControllerConfig{
		GalleryCount:   config.GalleryCount,
		GalleryService: galleryService,
		Renderer:       renderer,
	})

	/*
	 * Setup router and http server
	 */
	slog.Debug("setting up routes...")

	visitorMiddleware := newVisitorMiddleware(sessionService, []string{"/static"})
	adminMiddleware := newAdminMiddleware([]string{"/admin/login"})

	// The visitor has to be in the context before the admin check runs
	adminChain := func(next http.Handler) http.Handler {
		return visitorMiddleware(adminMiddleware(next))
	}

	visitor := []mux.MiddlewareFunc{visitorMiddleware}
	adminOnly := []mux.MiddlewareFunc{adminChain}

	routes := []mux.Route{
		{Path: "GET /heartbeat", HandlerFunc: heartbeat},
		{Path: "GET /", HandlerFunc: homeController.HomePage, Middlewares: visitor},
		{Path: "GET /cats/random", HandlerFunc: catController.RandomCatPage, Middlewares: visitor},
		{Path: "GET /cats/{id}", HandlerFunc: catController.ViewCatPage, Middlewares: visitor},
		{Path: "GET /cats/{id}/thumbnail", HandlerFunc: catController.Thumbnail, Middlewares: visitor},
		{Path: "POST /cats/{id}/vote", HandlerFunc: catController.VoteAction, Middlewares: visitor},
		{Path: "POST /cats/{id}/favourite", HandlerFunc: catController.FavouriteAction, Middlewares: visitor},
		{Path: "POST /cats/{id}/report", HandlerFunc: catController.ReportAction, Middlewares: visitor},
		{Path: "GET /favourites", HandlerFunc: catController.FavouritesPage, Middlewares: visitor},
		{Path: "POST /favourites/download", HandlerFunc: catController.DownloadFavouritesAction, Middlewares: visitor},
		{Path: "GET /favourites/downloads/{filename}", HandlerFunc: catController.DownloadArchive, Middlewares: visitor},
		{Path: "GET /admin/login", HandlerFunc: adminController.LoginPage, Middlewares: adminOnly},
		{Path: "POST /admin/login", HandlerFunc: adminController.LoginAction, Middlewares: adminOnly},
		{Path: "GET /admin/logout", HandlerFunc: adminController.LogoutAction, Middlewares: adminOnly},
		{Path: "GET /admin/settings", HandlerFunc: adminController.SettingsPage, Middlewares: adminOnly},
		{Path: "POST /admin/settings", HandlerFunc: adminController.SaveSettingsAction, Middlewares: adminOnly},
	}

	routerConfig := mux.RouterConfig{
		Address:              config.Host,
		Debug:                Version == "development",
		ServeStaticContent:   true,
		StaticContentRootDir: "app",
		StaticContentPrefix:  "/static/",
		StaticFS:             appFS,
		HttpWriteTimeout:     60,
	}

	m := mux.SetupRouter(routerConfig, routes)
	httpServer, quit := mux.SetupServer(routerConfig, m)

	/*
	 * Start the archive cleanup job
	 */
	archiveService.StartCleanupRoutine(24 * time.Hour)
	defer archiveService.StopCleanupRoutine()

	/*
	 * Wait for graceful shutdown
	 */
	slog.Info("server started")

	<-quit

	cancel()
	mux.Shutdown(httpServer)
	slog.Info("server stopped")
}

func heartbeat(w http.ResponseWriter, r *http.Request) {
	httphelpers.TextOK(w, "OK")
}

/*
defaultSettings seeds the settings used until an administrator saves the
form. Every format is on and every feature is off.
*/
func defaultSettings(config *configuration.Config) models.Settings {
	return models.Settings{
		ApiURL:    config.ApiURL,
		ApiKey:    config.ApiKey,
		ImageSize: models.ImageSizeMed,
		FormatJPG: true,
		FormatGIF: true,
		FormatPNG: true,
		Category:  models.CategoryAll,
	}
}

func migrateDatabase() {
	var (
		err  error
		dirs []fs.DirEntry
		b    []byte
	)

	if dirs, err = sqlMigrationsFs.ReadDir("sql-migrations"); err != nil {
		panic(err)
	}

	for _, d := range dirs {
		if d.IsDir() {
			continue
		}

		if strings.HasPrefix(d.Name(), "commit") {
			if b, err = fs.ReadFile(sqlMigrationsFs, filepath.Join("sql-migrations", d.Name())); err != nil {
				panic(err)
			}

			if err = runSqlScript(b); err != nil {
				if !isIgnorableError(err) {
					panic(err)
				}
			}
		}
	}
}

func runSqlScript(script []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := db.Exec(ctx, string(script))
	return err
}

func isIgnorableError(err error) bool {
	if strings.Contains(err.Error(), "duplicate column") {
		return true
	}

	return false
}
