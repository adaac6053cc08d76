package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/assignment"
	assignmentHttp "github.com/nekogravitycat/hotel-inventory-backend/internal/assignment/http"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/auth"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/availability"
	availabilityHttp "github.com/nekogravitycat/hotel-inventory-backend/internal/availability/http"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/hotel-inventory-backend/internal/booking/http"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/cancellation"
	cancellationHttp "github.com/nekogravitycat/hotel-inventory-backend/internal/cancellation/http"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/hotel"
	hotelHttp "github.com/nekogravitycat/hotel-inventory-backend/internal/hotel/http"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/logging"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/ratelimit"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/room"
	roomHttp "github.com/nekogravitycat/hotel-inventory-backend/internal/room/http"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/roomtype"
	roomtypeHttp "github.com/nekogravitycat/hotel-inventory-backend/internal/roomtype/http"
)

// Config holds the services and settings the router is assembled from.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *logrus.Logger

	HotelService        hotel.Service
	RoomTypeService     roomtype.Service
	RoomService         room.Service
	AvailabilityService availability.Service
	PolicyService       cancellation.Service
	AssignmentService   assignment.Service
	BookingService      booking.Service

	JWTManager   *auth.JWTManager
	WebhookToken string

	Redis     *redis.Client
	RateLimit ratelimit.Config
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information through logrus.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(logging.GinLogger(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000", // Front desk console
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Capability guards. Managers pass every guard.
	staffMiddleware := auth.RequireCapability(domain.CapRooms, domain.CapMaintenance)
	frontDeskMiddleware := auth.RequireCapability(domain.CapFrontDesk)
	managerMiddleware := auth.RequireCapability(domain.CapManager)
	limiter := ratelimit.Middleware(cfg.RateLimit, cfg.Redis, cfg.Logger)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	hotelHandler := hotelHttp.NewHandler(cfg.HotelService)
	roomTypeHandler := roomtypeHttp.NewHandler(cfg.RoomTypeService)
	roomHandler := roomHttp.NewHandler(cfg.RoomService)
	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService)
	policyHandler := cancellationHttp.NewHandler(cfg.PolicyService)
	assignmentHandler := assignmentHttp.NewHandler(cfg.AssignmentService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)

	v1 := r.Group("/v1")

	// Every hotel route requires a staff token scoped to that hotel.
	hotelGroup := v1.Group("/hotels/:hotel_id")
	hotelGroup.Use(
		auth.AuthRequired(cfg.JWTManager),
		auth.RequireHotelScope(),
		RequireActiveHotel(cfg.HotelService),
		limiter,
	)
	{
		hotelHttp.RegisterRoutes(hotelGroup, hotelHandler, managerMiddleware)
		roomtypeHttp.RegisterRoutes(hotelGroup, roomTypeHandler)
		roomHttp.RegisterRoutes(hotelGroup, roomHandler, staffMiddleware)
		availabilityHttp.RegisterRoutes(hotelGroup, availabilityHandler)
		cancellationHttp.RegisterRoutes(hotelGroup, policyHandler, managerMiddleware)
		assignmentHttp.RegisterRoutes(hotelGroup, assignmentHandler, staffMiddleware)
		bookingHttp.RegisterRoutes(hotelGroup, bookingHandler, frontDeskMiddleware)
	}

	bookingHttp.RegisterWebhookRoutes(v1, bookingHandler, auth.RequireToken(cfg.WebhookToken))

	return r
}
