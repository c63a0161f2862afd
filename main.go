package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	domain "github.com/shred787/mindaid/domain/task"
	"github.com/shred787/mindaid/modules/api"
	"github.com/shred787/mindaid/modules/cache"
	"github.com/shred787/mindaid/modules/extraction"
	"github.com/shred787/mindaid/modules/notification"
	"github.com/shred787/mindaid/modules/task"
	"github.com/shred787/mindaid/modules/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from environment
	httpPort := getEnvInt("HTTP_PORT", 3000)
	dbPath := getEnv("DB_PATH", "./mindaid.db")
	dbDebug := getEnvBool("DB_DEBUG", false)
	redisAddr := getEnv("REDIS_ADDR", "")
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)
	cachePrefix := getEnv("CACHE_PREFIX", "mindaid:")
	openAIKey := getEnv("OPENAI_API_KEY", "")
	openAIModel := getEnv("OPENAI_MODEL", extraction.DefaultModel)
	openAIBaseURL := getEnv("OPENAI_BASE_URL", "")
	followUpTimeout := getEnvDuration("FOLLOW_UP_TIMEOUT", task.DefaultFollowUpTimeout)
	modelTimeout := getEnvDuration("MODEL_CALL_TIMEOUT", extraction.DefaultCallTimeout)
	checkInInterval := getEnvDuration("CHECK_IN_INTERVAL", notification.DefaultCheckInInterval)
	notificationRetention := getEnvDuration("NOTIFICATION_RETENTION", notification.DefaultRetention)
	policyFile := getEnv("EVIDENCE_POLICY_FILE", "")
	demoUserID := getEnv("DEMO_USER_ID", "demo-user-123")
	corsOrigins := getEnv("CORS_ALLOWED_ORIGINS", "")

	if clamped, lowered := task.ClampFollowUpTimeout(followUpTimeout); lowered {
		log.Printf("Warning: FOLLOW_UP_TIMEOUT %s exceeds the request-reply deadline, using %s", followUpTimeout, clamped)
		followUpTimeout = clamped
	}
	// A model call that outlives the follow-up timeout is never waited for.
	modelTimeout = min(modelTimeout, followUpTimeout)

	log.Println("=== mindaid - Evidence-Gated Task Tracking ===")
	log.Printf("Database: %s", dbPath)
	log.Printf("HTTP Port: %d", httpPort)
	log.Printf("Follow-up timeout: %s", followUpTimeout)
	log.Printf("Model call timeout: %s", modelTimeout)
	log.Printf("Check-in interval: %s", checkInInterval)

	policy, err := loadPolicy(policyFile)
	if err != nil {
		log.Fatalf("Failed to load evidence policy: %v", err)
	}

	db, err := openDatabase(dbPath, dbDebug)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	appLogger := app.Logger()

	// Redis is optional; without it task reads go straight to SQLite.
	var taskCache cache.Store
	var cacheModule *cache.Module
	if redisAddr != "" {
		cacheModule = cache.NewModule(redisAddr, cachePrefix, cacheTTL, appLogger.WithModule("cache"))
		taskCache = cacheModule.Cache()
		log.Printf("Redis: %s (prefix %q, ttl %s)", redisAddr, cachePrefix, cacheTTL)
	} else {
		log.Println("Redis: disabled (REDIS_ADDR not set)")
	}

	// Without an API key, evidence analysis yields no follow-ups and planning is unavailable.
	var model extraction.JSONModel
	if openAIKey != "" {
		model = extraction.NewOpenAIModel(extraction.OpenAIConfig{
			APIKey:  openAIKey,
			Model:   openAIModel,
			BaseURL: openAIBaseURL,
		})
		log.Printf("Language model: %s", openAIModel)
	} else {
		log.Println("Language model: disabled (OPENAI_API_KEY not set)")
	}

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	var modules []mono.Module
	if cacheModule != nil {
		modules = append(modules, cacheModule) // Redis read cache for tasks
	}
	modules = append(modules,
		// Independent module
		user.NewModule(db, demoUserID, appLogger.WithModule("user")),
		// Language extraction services
		extraction.NewModule(extraction.Config{
			Model:       model,
			CallTimeout: modelTimeout,
		}, appLogger.WithModule("extraction")),
		// Event consumer, persisted inbox and check-ins
		notification.NewModule(notification.Config{
			DB:              db,
			CheckInUserID:   demoUserID,
			CheckInInterval: checkInInterval,
			Retention:       notificationRetention,
		}, appLogger.WithModule("notification")),
		// Core domain (depends on user and extraction, emits events)
		task.NewModule(task.Config{
			DB:              db,
			Cache:           taskCache,
			Policy:          policy,
			FollowUpTimeout: followUpTimeout,
		}, appLogger.WithModule("task")),
		// Driving adapter
		api.NewModule(api.Config{
			Addr:               fmt.Sprintf(":%d", httpPort),
			CORSAllowedOrigins: corsOrigins,
			DefaultUserID:      demoUserID,
		}, appLogger.WithModule("api")),
	)
	for _, m := range modules {
		if err := app.Register(m); err != nil {
			log.Fatalf("Failed to register module %s: %v", m.Name(), err)
		}
	}

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(httpPort, demoUserID)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				stopErr := app.Stop(ctx)
				return errors.Join(stopErr, closeDatabase(db))
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// loadPolicy reads the evidence policy from path, or returns the defaults when path is empty.
func loadPolicy(path string) (domain.Policy, error) {
	if path == "" {
		return domain.DefaultPolicy(), nil
	}
	policy, err := domain.LoadPolicy(path)
	if err != nil {
		return domain.Policy{}, err
	}
	log.Printf("Evidence policy: %s (min %d, sufficient %d, %d phrases)",
		path, policy.MinDescriptionLength, policy.SufficientDescriptionLength, len(policy.GenericPhrases))
	return policy, nil
}

// openDatabase opens the shared SQLite database used by the user, task and notification modules.
func openDatabase(path string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	log.Println("Database connection closed")
	return nil
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

func printStartupInfo(port int, demoUserID string) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Demo user: %s", demoUserID)
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("  GET    /health                            - Health check")
	log.Println("  GET    /api/v1/overview                   - Daily overview")
	log.Println("  POST   /api/v1/tasks                      - Create a task")
	log.Println("  GET    /api/v1/tasks                      - List tasks (?user_id, ?date=YYYY-MM-DD)")
	log.Println("  GET    /api/v1/tasks/:id                  - Get a task")
	log.Println("  PATCH  /api/v1/tasks/:id                  - Update a task")
	log.Println("  DELETE /api/v1/tasks/:id                  - Delete a task")
	log.Println("  POST   /api/v1/tasks/:id/complete         - Complete a task with evidence")
	log.Println("  POST   /api/v1/tasks/plan                 - Plan tasks from a message")
	log.Println("  POST   /api/v1/ai/break-down-task         - Break a task into subtasks")
	log.Println("  POST   /api/v1/ai/extract-task            - Extract a task from a message")
	log.Println("  POST   /api/v1/ai/reschedule              - Suggest new slots for disrupted tasks")
	log.Println("  GET    /api/v1/notifications              - List notifications (?acknowledged)")
	log.Println("  POST   /api/v1/notifications/:id/acknowledge - Acknowledge a notification")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
