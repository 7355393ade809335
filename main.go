package main

import (
	"log"
	"time"

	"optimile-backend-go/config"
	"optimile-backend-go/core/engine"
	"optimile-backend-go/handlers"
	"optimile-backend-go/middleware"
	"optimile-backend-go/pkg/rabbitmq"
	"optimile-backend-go/services"
	"optimile-backend-go/store"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/robfig/cron/v3"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func main() {
	// 1. Config & connections
	config.LoadEnv()
	config.ConnectDB()
	config.ConnectRedis()
	defer config.CloseDB()
	defer config.CloseRedis()

	// 2. Socket.IO setup
	io := socketio.NewServer(nil, nil)

	io.On("connection", func(clients ...any) {
		socket := clients[0].(*socketio.Socket)
		log.Printf("🔌 Client connected: %s", socket.Id())

		socket.On("join_lane", func(data ...any) {
			if len(data) > 0 {
				laneID, _ := data[0].(string)
				socket.Join(socketio.Room("lane:" + laneID))
			}
		})

		socket.On("leave_lane", func(data ...any) {
			if len(data) > 0 {
				laneID, _ := data[0].(string)
				socket.Leave(socketio.Room("lane:" + laneID))
			}
		})

		socket.On("join_vendor", func(data ...any) {
			if len(data) > 0 {
				vendorID, _ := data[0].(string)
				socket.Join(socketio.Room("vendor:" + vendorID))
			}
		})

		socket.On("disconnect", func(args ...any) {
			log.Printf("🔌 Client disconnected: %s", socket.Id())
		})
	})

	// 3. Notification bus (RabbitMQ is optional in dev)
	bus := &services.EventBus{Io: io, Exchange: config.GetEnv("EVENT_EXCHANGE", "auction.events")}
	amqpURL := config.GetEnv("RABBITMQ_URL", "")
	if amqpURL != "" {
		conn, ch, err := rabbitmq.Connect(amqpURL)
		if err != nil {
			log.Fatalf("❌ RabbitMQ connection failed: %v", err)
		}
		defer conn.Close()
		if err := rabbitmq.DeclareExchange(ch, bus.Exchange, "topic"); err != nil {
			log.Fatalf("❌ RabbitMQ exchange declare failed: %v", err)
		}
		bus.Ch = ch
		log.Println("✅ RabbitMQ connected, notification events enabled")
	} else {
		log.Println("⚠️ RABBITMQ_URL not set, notification events go to socket.io only")
	}

	// 4. Engine + services
	pgStore := store.NewPGStore(config.DB)
	auctionEngine := engine.NewEngine(pgStore, bus)
	services.Init(auctionEngine, pgStore, bus)

	// 5. Scheduler: the engine owns no timers; this is its clock.
	c := cron.New()
	c.AddFunc("@every 30s", func() {
		services.GlobalScheduler.Sweep()
	})
	c.Start()
	defer c.Stop()
	log.Println("⏰ Lane close / award expiry sweep started (every 30s)")

	// 6. Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, HEAD, PUT, DELETE, PATCH, OPTIONS",
	}))

	authLimiter := middleware.NewAuthLimiter()
	dataLimiter := middleware.NewDataLimiter()
	biddingLimiter := middleware.NewBiddingLimiter()

	// 7. Routes

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "Online 🟢",
			"message": "Optimile Reverse-Auction Engine Ready",
			"time":    time.Now(),
		})
	})

	app.All("/socket.io/*", adaptor.HTTPHandler(io.ServeHandler(nil)))

	// Auth
	auth := app.Group("/api/auth", authLimiter)
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	// Reads (authenticated)
	api := app.Group("/api", dataLimiter, middleware.AuthMiddleware)
	api.Get("/auctions", handlers.ListAuctions)
	api.Get("/auctions/:id/lanes", handlers.ListLanes)
	api.Get("/lanes/:id", handlers.GetLane)
	api.Get("/lanes/:id/leaderboard", handlers.Leaderboard)
	api.Get("/lanes/:id/awards", handlers.AwardChain)
	api.Get("/lanes/:id/queue", handlers.QueueStatus)

	// Client create flow
	client := app.Group("/api", middleware.AuthMiddleware, middleware.RequireRole("CLIENT"))
	client.Post("/auctions", handlers.CreateAuction)
	client.Patch("/lanes/:id", handlers.UpdateLane)

	// Vendor bidding
	vendor := app.Group("/api", biddingLimiter, middleware.AuthMiddleware, middleware.RequireRole("VENDOR"))
	vendor.Post("/lanes/:id/bids", handlers.PlaceBid)
	vendor.Get("/lanes/:id/rank", handlers.MyRank)
	vendor.Get("/lanes/:id/my-bids", handlers.MyBids)
	vendor.Post("/awards/:id/accept", handlers.AcceptAward)
	vendor.Post("/awards/:id/decline", handlers.DeclineAward)

	// Admin lifecycle controls
	admin := app.Group("/api/admin", middleware.AuthMiddleware, middleware.RequireRole("ADMIN"))
	admin.Post("/lanes/:id/start", handlers.StartLane)
	admin.Post("/lanes/:id/pause", handlers.PauseLane)
	admin.Post("/lanes/:id/resume", handlers.ResumeLane)
	admin.Post("/lanes/:id/close", handlers.CloseLane)
	admin.Post("/lanes/:id/award", handlers.ForceAward)
	admin.Post("/lanes/:id/spot", handlers.TriggerSpot)
	admin.Get("/health", handlers.HealthCheck)

	// 8. Start
	port := config.GetEnv("PORT", "3000")
	log.Fatal(app.Listen(":" + port))
}
