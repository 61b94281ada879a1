package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/franciscosanchezn/gin-oauth-server/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-oauth-server/internal/auth"
	"github.com/franciscosanchezn/gin-oauth-server/internal/config"
	"github.com/franciscosanchezn/gin-oauth-server/internal/controllers"
	"github.com/franciscosanchezn/gin-oauth-server/internal/database"
	"github.com/franciscosanchezn/gin-oauth-server/internal/identity"
	"github.com/franciscosanchezn/gin-oauth-server/internal/metrics"
	"github.com/franciscosanchezn/gin-oauth-server/internal/middleware"
	"github.com/franciscosanchezn/gin-oauth-server/internal/services"
	"github.com/franciscosanchezn/gin-oauth-server/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

var (
	db            *gorm.DB
	configuration *config.Config
)

// @title OAuth Authorization Server
// @version 1.0
// @description OAuth 2.0 authorization code server with consent, token exchange and bearer protected resources
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize database connection
	setupDatabase(configuration)

	store := setupSessionStore(configuration)
	members := services.NewMemberService(db)
	memberIdentity := identity.NewCookieIdentity(members, configuration.JWTSecret, configuration.CookieSecure)
	oauthService := auth.NewOAuthService(db, memberIdentity, configuration.OAuth())

	router := setupRouter()
	setupRoutes(router, oauthService, store, memberIdentity, controllers.NewAuthController(members, memberIdentity))

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	level := config.LevelForEnvironment(config.GetEnvWithDefault("APP_ENV", "development"))
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(level)
	auth.SetLogLevel(level)
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase opens the configured database and migrates the schema
func setupDatabase(conf *config.Config) *gorm.DB {
	var err error
	db, err = database.InitDatabase(conf.Database())
	checkPanicErr(err)
	return db
}

// setupSessionStore picks where pending authorization requests live
func setupSessionStore(conf *config.Config) session.Store {
	switch conf.SessionStore {
	case config.SessionStoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, err := session.NewRedisStore(ctx, conf.RedisURL, conf.RedisKeyPrefix)
		checkPanicErr(err)
		log.Info("Authorization sessions stored in Redis")
		return store
	case config.SessionStoreMemory:
		log.Warn("Authorization sessions kept in memory, do not run more than one instance")
		store := session.NewMemoryStore()
		go sweepSessions(store, conf.SessionTTL)
		return store
	default:
		store := session.NewDatabaseStore(db)
		go sweepSessions(store, conf.SessionTTL)
		return store
	}
}

// expiringStore is a session store that needs its expired entries swept
type expiringStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// sweepSessions removes expired sessions once per TTL
func sweepSessions(store expiringStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		removed, err := store.DeleteExpired(context.Background())
		if err != nil {
			log.WithError(err).Error("Failed to delete expired authorization sessions")
			continue
		}
		if removed > 0 {
			log.WithField("removed", removed).Debug("Expired authorization sessions deleted")
		}
	}
}

// setupRouter initializes the Gin router with the shared middleware
func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(metrics.Middleware())
	return router
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine, oauth *auth.OAuthService, store session.Store, memberIdentity *identity.CookieIdentity, authController *controllers.AuthController) {
	// Operations
	router.GET("/health", healthCheckHandler)
	router.GET("/metrics", metrics.Handler())

	// Authorization server
	var limiter *middleware.IPRateLimiter
	if configuration.TokenRateLimit > 0 {
		limiter = middleware.NewIPRateLimiter(configuration.TokenRateLimit, configuration.TokenRateBurst)
	}
	router.Any("/oauth/token", middleware.RateLimit(limiter), oauth.HandleToken)

	flow := router.Group("/oauth")
	flow.Use(session.Middleware(store, configuration.SessionTTL, configuration.CookieSecure))
	{
		flow.GET("/authorize", oauth.HandleAuthorize)
		flow.GET("/runauth", oauth.HandleRunAuth)
		flow.POST("/allow", oauth.HandleAllow)
		flow.GET("/cancel", oauth.HandleCancel)
		flow.POST("/cancel", oauth.HandleCancel)
	}

	// End-user login
	router.GET("/login", authController.LoginForm)
	router.POST("/login", authController.Login)
	router.POST("/register", authController.Register)
	router.POST("/logout", authController.Logout)

	// Protected resources
	resourceController := controllers.NewResourceController()
	v1 := router.Group("/api/v1")
	{
		v1.GET("/me", middleware.RequireOAuth(oauth.Bearer(), memberIdentity, "profile"), resourceController.Me)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service and its database are reachable
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "gin-oauth-server",
	})
}
