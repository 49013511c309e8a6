package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/edupay/internal/app/auth"
	appControllers "github.com/yigit/edupay/internal/app/controllers"
	appMigrations "github.com/yigit/edupay/internal/app/migrations"
	appRoutes "github.com/yigit/edupay/internal/app/routes"
	appServices "github.com/yigit/edupay/internal/app/services"
	"github.com/yigit/edupay/internal/app/state"
	"github.com/yigit/edupay/internal/config"
	"github.com/yigit/edupay/internal/db"
	appMiddleware "github.com/yigit/edupay/internal/middleware"
	pkgAuth "github.com/yigit/edupay/internal/pkg/auth"
	"github.com/yigit/edupay/internal/pkg/filestorage"
	"github.com/yigit/edupay/internal/pkg/logger"
	"github.com/yigit/edupay/internal/pkg/websocket"
	"github.com/yigit/edupay/internal/seed"
	"github.com/yigit/edupay/internal/store"
	"github.com/yigit/edupay/internal/store/memstore"
)

// DefaultConfigPath is where the config file is looked up when none is given.
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Gateway   store.Gateway
	Database  *db.PostgresDB // nil on the in-memory store
	State     *state.Store
	Refresher *state.Refresher
	Ledger    *appServices.Ledger

	CourseService       appServices.CourseService
	StudentService      appServices.StudentService
	PaymentService      appServices.PaymentService
	ReportService       appServices.ReportService
	SettingsService     appServices.SettingsService
	AccountantService   appServices.AccountantService
	NotificationService appServices.NotificationService

	JWTService     *pkgAuth.JWTService
	Authenticator  *appAuth.Authenticator
	AuthMiddleware *appMiddleware.AuthMiddleware
	FileStorage    *filestorage.LocalStorage
	Hub            *websocket.Hub
	Controllers    appRoutes.Controllers
	Logger         zerolog.Logger
}

// Close releases the database pool, if any.
func (d *Dependencies) Close() {
	if d.Database != nil {
		d.Database.Close()
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects to Postgres and applies pending migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if err := RunMigrations(ctx, cfg, database, lgr); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// RunMigrations applies every pending file in the configured migrations directory.
func RunMigrations(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) error {
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(database.Pool).MigrateFromDirectory(ctx, migrationsDir)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return nil
}

// OpenGateway returns the store the services write to. With memory set it is
// an in-process store holding demo data; otherwise Postgres.
func OpenGateway(ctx context.Context, cfg *config.Config, memory bool, lgr zerolog.Logger) (store.Gateway, *db.PostgresDB, error) {
	if memory {
		lgr.Warn().Msg("Using the in-memory store; data is lost on exit")
		mem := memstore.New()
		if err := seed.CreateDemoData(ctx, mem, lgr); err != nil {
			return nil, nil, fmt.Errorf("failed to seed in-memory store: %w", err)
		}
		return mem, nil, nil
	}

	database, err := SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, nil, err
	}
	return store.NewPostgres(database, cfg.Sync.StoreCallTimeout), database, nil
}

// BuildDependencies initializes the ledger, services and controllers on top of gw.
func BuildDependencies(ctx context.Context, cfg *config.Config, gw store.Gateway, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Gateway: gw, Logger: lgr}

	// Create Default Data before the first refresh so it is part of the first snapshot
	if err := seed.CreateDefaultData(ctx, gw, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	deps.State = state.NewStore()
	deps.Refresher = state.NewRefresher(gw, deps.State, cfg.Sync.RefreshTimeout)
	deps.Ledger = appServices.NewLedger(gw, deps.State, deps.Refresher)

	var err error
	publicBaseURL := strings.TrimRight(cfg.Server.PublicBaseURL, "/")
	if publicBaseURL == "" {
		publicBaseURL = "http://localhost:" + cfg.Server.Port
	}
	// Must match the static file serving URL path
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, publicBaseURL+"/uploads")
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.CourseService = appServices.NewCourseService(deps.Ledger)
	deps.StudentService = appServices.NewStudentService(deps.Ledger)
	deps.PaymentService = appServices.NewPaymentService(deps.Ledger, appServices.ReceiptConfig{
		Prefix: cfg.Receipts.Prefix,
		Base:   cfg.Receipts.Base,
	})
	deps.ReportService = appServices.NewReportService(deps.Ledger)
	deps.SettingsService = appServices.NewSettingsService(deps.Ledger, deps.FileStorage, cfg.Server.MaxLogoBytes)
	deps.AccountantService = appServices.NewAccountantService(deps.Ledger, cfg.Admin.LoginID)
	deps.NotificationService = appServices.NewNotificationService(deps.Ledger)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenExp:    cfg.TokenTTL(),
		TokenIssuer: cfg.JWT.Issuer,
	})
	admin, err := appAuth.NewAdminPrincipal(cfg.Admin.LoginID, cfg.Admin.Password, cfg.Admin.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare admin credentials: %w", err)
	}
	deps.Authenticator = appAuth.NewAuthenticator(admin, deps.State, deps.JWTService)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.Authenticator)

	deps.Hub = websocket.NewHub(logger.Component("websocket"))
	deps.State.Subscribe(func(snap *state.Snapshot) {
		deps.Hub.Publish(websocket.Event{
			Type:     websocket.EventSnapshotUpdated,
			LoadedAt: snap.LoadedAt,
			Counts:   snap.Counts(),
			Unread:   snap.Unread(),
			Pending:  snap.Pending(),
		})
	})

	deps.Controllers = appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(deps.Authenticator),
		Course:       appControllers.NewCourseController(deps.CourseService),
		Student:      appControllers.NewStudentController(deps.StudentService),
		Payment:      appControllers.NewPaymentController(deps.PaymentService, deps.ReportService),
		Report:       appControllers.NewReportController(deps.ReportService, deps.Refresher, deps.State),
		Settings:     appControllers.NewSettingsController(deps.SettingsService),
		Accountant:   appControllers.NewAccountantController(deps.AccountantService),
		Notification: appControllers.NewNotificationController(deps.NotificationService),
		Events:       websocket.NewHandler(deps.Hub, cfg.Server.AllowedOrigins, logger.Component("websocket")),
	}

	return deps, nil
}

// InitialSync loads the first snapshot. A failure is logged and the console
// starts with whatever loaded; the next sync retries.
func InitialSync(ctx context.Context, deps *Dependencies) {
	if err := deps.Refresher.Refresh(ctx); err != nil {
		deps.Logger.Error().Err(err).Msg("Initial sync failed")
		return
	}
	deps.Logger.Info().Interface("counts", deps.State.Current().Counts()).Msg("Initial sync complete")
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(logger.Component("http")))
	router.Use(appMiddleware.CORS(cfg.Server.AllowedOrigins))

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	// Serve the uploads directory at /uploads URL path
	router.Static("/uploads", cfg.Server.StoragePath)

	return router
}
