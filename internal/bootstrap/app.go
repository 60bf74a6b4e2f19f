package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	googleauth "allie-backend/internal/auth"
	"allie-backend/internal/families"
	"allie-backend/internal/insurance"
	"allie-backend/internal/medicaldocs"
	"allie-backend/internal/medications"
	"allie-backend/internal/queue"
	"allie-backend/internal/reminders"
	"allie-backend/internal/services/health"
	"allie-backend/internal/shared/config"
	"allie-backend/internal/shared/server"
	"allie-backend/internal/shared/server/middleware"
	"allie-backend/internal/shared/storage/db"
	"allie-backend/internal/shared/storage/object"
	localstore "allie-backend/internal/shared/storage/object/local"
	s3store "allie-backend/internal/shared/storage/object/s3"
	"allie-backend/internal/shared/telemetry"
	"allie-backend/internal/uploads"
	"allie-backend/internal/users"
)

const uploadsDefaultRegion = "us-east-1"

// App holds shared dependencies for every binary.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	Store          object.ObjectStore
	UploadsStore   object.ObjectStore
	UploadsPresign *s3.PresignClient
	UploadsBucket  string
	UploadsPrefix  string
	Queue          queue.Client

	Users       *users.Service
	Families    *families.Service
	MedicalDocs *medicaldocs.Service
	Insurance   *insurance.Service
	Medications *medications.Service
	Reminders   *reminders.Service
	Dispatcher  *reminders.Dispatcher
	Health      *health.Service
	GoogleAuth  *googleauth.GoogleService
}

// Build wires repositories, services and the HTTP router. Without a database
// in dev-like environments every repository is in-memory.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	if err := buildUploads(ctx, app); err != nil {
		return nil, err
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		Health:            app.Health,
		Families:          app.Families,
		FamilyHandler:     families.NewHandler(app.Families),
		MedicalDocHandler: medicaldocs.NewHandler(app.MedicalDocs, cfg.Location),
		InsuranceHandler:  insurance.NewHandler(app.Insurance, cfg.Location),
		MedicationHandler: medications.NewHandler(app.Medications, cfg.Location),
		ReminderHandler:   reminders.NewHandler(app.Reminders),
		UploadHandler:     uploads.NewHandler(presigner(app.UploadsPresign), app.UploadsBucket, app.UploadsPrefix),
		UserHandler:       users.NewHandler(app.Users),
		GoogleAuth:        app.GoogleAuth,
		RateLimiter:       middleware.NewRateLimiter(nil),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_url_empty", map[string]any{"storage": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultLambdaOptions()))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{"storage": "memory", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.ReminderQueueURL) == "" {
		return nil, nil
	}
	client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.ReminderQueueURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// buildUploads prepares the presigner handed to browsers and the store the
// API reads staged uploads back from. Both live in UPLOADS_S3_BUCKET.
func buildUploads(ctx context.Context, app *App) error {
	bucket := strings.TrimSpace(app.Config.UploadsBucket)
	if bucket == "" {
		return nil
	}
	region := strings.TrimSpace(app.Config.AWSRegion)
	if region == "" {
		region = uploadsDefaultRegion
	}
	prefix := strings.TrimSpace(app.Config.UploadsPrefix)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)

	app.UploadsPresign = s3.NewPresignClient(client)
	app.UploadsStore = s3store.NewWithClient(client, bucket, "", app.Config.SSEKMSKeyID)
	app.UploadsBucket = bucket
	app.UploadsPrefix = prefix
	return nil
}

func buildServices(app *App) {
	var (
		userRepo     users.Repo
		familyRepo   families.Repo
		docRepo      medicaldocs.Repo
		categoryRepo medicaldocs.CategoryRepo
		planRepo     insurance.PlanRepo
		insDocRepo   insurance.DocumentRepo
		medRepo      medications.MedicationRepo
		schedRepo    medications.ScheduleRepo
		logRepo      medications.LogRepo
		reminderRepo reminders.Repo
	)
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		familyRepo = &families.PGRepo{DB: app.DB}
		docRepo = &medicaldocs.PGRepo{DB: app.DB}
		categoryRepo = &medicaldocs.PGCategoryRepo{DB: app.DB}
		planRepo = &insurance.PGPlanRepo{DB: app.DB}
		insDocRepo = &insurance.PGDocumentRepo{DB: app.DB}
		medRepo = &medications.PGMedicationRepo{DB: app.DB}
		schedRepo = &medications.PGScheduleRepo{DB: app.DB}
		logRepo = &medications.PGLogRepo{DB: app.DB}
		reminderRepo = &reminders.PGRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		familyRepo = families.NewMemoryRepo()
		docRepo = medicaldocs.NewMemoryRepo()
		categoryRepo = medicaldocs.NewMemoryCategoryRepo()
		planRepo = insurance.NewMemoryPlanRepo()
		insDocRepo = insurance.NewMemoryDocumentRepo()
		medRepo = medications.NewMemoryMedicationRepo()
		schedRepo = medications.NewMemoryScheduleRepo()
		logRepo = medications.NewMemoryLogRepo()
		reminderRepo = reminders.NewMemoryRepo()
	}

	medSvc := &medications.Service{
		Medications: medRepo,
		Schedules:   schedRepo,
		Logs:        logRepo,
	}
	remSvc := &reminders.Service{
		Repo:       reminderRepo,
		Catalog:    medSvc,
		WindowDays: app.Config.ReminderWindowDays,
		BatchSize:  app.Config.ReminderBatchSize,
		Location:   app.Config.Location,
	}
	medSvc.Reminders = remSvc

	app.Users = users.NewService(userRepo)
	app.Families = families.NewService(familyRepo)
	app.MedicalDocs = &medicaldocs.Service{
		Repo:          docRepo,
		Categories:    categoryRepo,
		Store:         app.Store,
		Uploads:       app.UploadsStore,
		UploadsPrefix: app.UploadsPrefix,
	}
	app.Insurance = &insurance.Service{
		Plans:     planRepo,
		Documents: insDocRepo,
		Store:     app.Store,
	}
	app.Medications = medSvc
	app.Reminders = remSvc
	app.Dispatcher = &reminders.Dispatcher{
		Reminders: remSvc,
		Queue:     app.Queue,
		BatchSize: app.Config.ReminderBatchSize,
	}
	app.Health = health.NewService(app.DB, db.MigrationStatus)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		app.Users,
	)
}

// presigner avoids handing uploads a typed-nil interface.
func presigner(p *s3.PresignClient) uploads.Presigner {
	if p == nil {
		return nil
	}
	return p
}
