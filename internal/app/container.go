package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/api"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/assignment"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/auth"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/availability"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/booking"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/cancellation"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/db"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/hotel"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/notify"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/payment"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/ratelimit"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/room"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/roomtype"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *logrus.Logger

	DBPool *pgxpool.Pool
	// Redis is optional; nil selects the in-process idempotency store and
	// disables rate limiting.
	Redis *redis.Client

	JWTSecret string
	JWTTTL    time.Duration

	Notifier       notify.Notifier
	NotifyTimeout  time.Duration
	Gateway        payment.Gateway
	IdempotencyTTL time.Duration
	WebhookToken   string

	BulkMaxItems int
	RateLimit    ratelimit.Config
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Dispatcher *notify.AsyncDispatcher
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	txManager := db.NewTxManager(cfg.DBPool)
	dispatcher := notify.NewDispatcher(cfg.Notifier, cfg.Logger, cfg.NotifyTimeout)

	var store payment.Store
	if cfg.Redis != nil {
		store = payment.NewRedisStore(cfg.Redis, "idem")
	} else {
		cfg.Logger.Warn("redis not configured, payment idempotency is process-local")
		store = payment.NewMemoryStore()
	}
	gateway := payment.NewIdempotentGateway(cfg.Gateway, store, cfg.IdempotencyTTL, cfg.Logger)

	// Hotel Module
	hotelRepo := hotel.NewPgxRepository(cfg.DBPool)
	hotelService := hotel.NewService(hotelRepo)

	// RoomType Module
	roomTypeRepo := roomtype.NewPgxRepository(cfg.DBPool)
	roomTypeService := roomtype.NewService(roomTypeRepo)

	// Room Module
	roomRepo := room.NewPgxRepository(cfg.DBPool)
	roomService := room.NewService(roomRepo, txManager, dispatcher, cfg.Logger)

	// Availability Module
	availabilityRepo := availability.NewPgxRepository(cfg.DBPool)
	availabilityService := availability.NewService(availabilityRepo, cfg.Logger)

	// Cancellation Policy Module
	policyRepo := cancellation.NewPgxRepository(cfg.DBPool)
	policyService := cancellation.NewService(policyRepo)

	// Booking and Assignment Modules share the booking repository.
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	assignmentService := assignment.NewService(roomRepo, bookingRepo, txManager, dispatcher, cfg.Logger)
	bookingService := booking.NewService(booking.Deps{
		Repo:         bookingRepo,
		Tx:           txManager,
		Hotels:       hotelService,
		RoomTypes:    roomTypeRepo,
		Availability: availabilityService,
		Policies:     policyService,
		Rooms:        roomService,
		Assignments:  assignmentService,
		Gateway:      gateway,
		Dispatcher:   dispatcher,
		Logger:       cfg.Logger,
		BulkMaxItems: cfg.BulkMaxItems,
	})

	// API Router Config
	routerParams := api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Logger:              cfg.Logger,
		HotelService:        hotelService,
		RoomTypeService:     roomTypeService,
		RoomService:         roomService,
		AvailabilityService: availabilityService,
		PolicyService:       policyService,
		AssignmentService:   assignmentService,
		BookingService:      bookingService,
		JWTManager:          jwtManager,
		WebhookToken:        cfg.WebhookToken,
		Redis:               cfg.Redis,
		RateLimit:           cfg.RateLimit,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Dispatcher: dispatcher,
	}
}
