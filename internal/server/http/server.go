// Package httpserver wires the REST API: routing, the authorization gate, and
// the error boundary.
package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/orusagri/agrimon/internal/model"
	"github.com/orusagri/agrimon/internal/repository"
	"github.com/orusagri/agrimon/internal/service"
)

// TokenVerifier resolves a bearer token to the account id it asserts.
type TokenVerifier interface {
	Verify(tokenString string) (uuid.UUID, error)
}

// Options carries the server's collaborators, all constructed in main.
type Options struct {
	Log        *zap.Logger
	Auth       service.AuthService
	Users      service.UserService
	Crops      service.CropService
	Sensors    service.SensorService
	Verifier   TokenVerifier
	Accounts   repository.UserRepository
	CORSOrigin string
	Dev        bool
}

// Server handles HTTP requests. All fields are read-only after New.
type Server struct {
	log      *zap.Logger
	auth     service.AuthService
	users    service.UserService
	crops    service.CropService
	sensors  service.SensorService
	verifier TokenVerifier
	accounts repository.UserRepository
	origin   string
	dev      bool
}

// New constructs a Server from its collaborators.
func New(o Options) *Server {
	return &Server{
		log:      o.Log,
		auth:     o.Auth,
		users:    o.Users,
		crops:    o.Crops,
		sensors:  o.Sensors,
		verifier: o.Verifier,
		accounts: o.Accounts,
		origin:   o.CORSOrigin,
		dev:      o.Dev,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	if !s.dev {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(Recover(s.log), Logging(s.log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.origin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "server is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// public
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/sensors/:id/data", s.handleIngest) // device ingestion

	// authenticated
	authed := api.Group("", s.Authenticate())
	{
		authed.GET("/auth/me", s.handleMe)
		authed.POST("/auth/logout", s.handleLogout)

		authed.GET("/crops", s.handleListCrops)
		authed.GET("/crops/stats", s.handleCropStats)
		authed.GET("/crops/:id", s.handleGetCrop)
		authed.POST("/crops", s.handleCreateCrop)
		authed.PUT("/crops/:id", s.handleUpdateCrop)
		authed.DELETE("/crops/:id", s.handleDeleteCrop)

		authed.GET("/sensors", s.handleListSensors)
		authed.GET("/sensors/:id", s.handleGetSensor)
		authed.GET("/sensors/:id/readings", s.handleListReadings)
		authed.GET("/sensors/:id/readings/average", s.handleReadingAverages)

		authed.GET("/users/:id", s.handleGetUser)
		authed.PUT("/users/:id", s.handleUpdateUser)
		authed.PUT("/users/:id/password", s.handleUpdatePassword)
	}

	// admin only
	admin := api.Group("", s.Authenticate(), RequireRoles(model.RoleAdmin))
	{
		admin.POST("/sensors", s.handleCreateSensor)
		admin.PUT("/sensors/:id", s.handleUpdateSensor)
		admin.DELETE("/sensors/:id", s.handleDeleteSensor)

		admin.GET("/users", s.handleListUsers)
		admin.DELETE("/users/:id", s.handleDeleteUser)
	}

	return r
}

// pathID parses the :id route parameter. A malformed id is a client error,
// reported as 400 before any lookup happens.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
