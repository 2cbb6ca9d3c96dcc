package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/scratchpos/lottery-services/configs"
	"github.com/scratchpos/lottery-services/internal/clock"
	"github.com/scratchpos/lottery-services/internal/comm"
	mongodb "github.com/scratchpos/lottery-services/internal/db"
	nats "github.com/scratchpos/lottery-services/internal/nats"
	"github.com/scratchpos/lottery-services/internal/packsvc/broker"
	svcconfig "github.com/scratchpos/lottery-services/internal/packsvc/config"
	"github.com/scratchpos/lottery-services/internal/packsvc/db"
	handlers "github.com/scratchpos/lottery-services/internal/packsvc/handlers"
	"github.com/scratchpos/lottery-services/internal/packsvc/lifecycle"
	"github.com/scratchpos/lottery-services/internal/packsvc/reconcile"
	"github.com/scratchpos/lottery-services/internal/packsvc/service"
	"github.com/scratchpos/lottery-services/internal/packsvc/store"
)

const SERVICE_NAME = "pack"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg := svcconfig.Load()

	// pg connection
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	// mongo holds the scan audit trail, aged out by TTL
	mdb, cancelMongo, err := mongodb.ConnectToDB()
	if err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer cancelMongo()
	mongodb.CreateTTLIndexForCollection(mdb, service.ScanAuditCollection)
	log.Printf("mongo connection established successfully")

	clk := clock.NewSystem()

	packStore := store.NewPackStore(dbpool)
	binStore := store.NewBinStore(dbpool)
	gameStore := store.NewGameStore(dbpool)
	returnedPackStore := store.NewReturnedPackStore(dbpool)
	shiftStore := store.NewShiftStore(dbpool)

	gameService := service.NewGameService(gameStore)
	packService := service.NewPackService(packStore, binStore, gameStore,
		returnedPackStore, lifecycle.NewEngine(clk))
	dayCloseService := service.NewDayCloseService(packStore, returnedPackStore,
		gameStore, shiftStore, packService, reconcile.NewEngine(),
		cfg.VarianceTolerance, clk)
	auditService := service.NewAuditService(mdb, cfg.AuditRetention, clk)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// init lane message broker
	b := broker.NewBroker(n.Conn, dayCloseService, auditService, cfg.ScanPolicy)

	// subscribe to lane gateway
	sub, err := b.SubscribeLaneService(comm.SubjectLane)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

	// sweep detector sessions for lanes that stopped heartbeating
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			if n := b.ExpireIdleSessions(5*time.Minute, now); n > 0 {
				log.Infof("expired %d idle lane scan sessions", n)
			}
		}
	}()

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(packService, gameService, dayCloseService)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("PACK_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
