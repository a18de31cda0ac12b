package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"match-service/internal/clients"
	"match-service/internal/config"
	"match-service/internal/db"
	"match-service/internal/enrich"
	"match-service/internal/handlers"
	"match-service/internal/matching"
	"match-service/internal/middleware"
	"match-service/internal/models"
	"match-service/internal/observability"
	"match-service/internal/rabbitmq"
	"match-service/internal/repositories"
	"match-service/internal/session"
	"match-service/internal/telemetry"
	"match-service/internal/ws"
)

const serviceName = "match-service"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), serviceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, cfg.AMQP.AuditRoutingKey, serviceName, cfg.Server.Environment)

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange); err != nil {
		log.Printf("ws event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	presenceRepo := repositories.NewPresenceRepo(database)
	connRepo := repositories.NewConnectionRepo(database)

	authClient := clients.NewAuthClient(cfg.Auth.URL)
	hub := ws.NewHub()
	scorer := matching.NewScorer(time.Now().UnixNano())

	var generator enrich.Generator
	if cfg.Enrichment.Enabled {
		generator = enrich.NewClient(cfg.Enrichment.URL, cfg.Enrichment.Timeout.Std())
	}

	sessions := session.NewManager(scorer, generator, connRepo, hub, session.Config{
		RevealDelay:       cfg.Session.RevealDelay.Std(),
		InviteFlagTTL:     cfg.Session.InviteFlagTTL.Std(),
		EnrichmentEnabled: cfg.Enrichment.Enabled,
		Language:          cfg.Enrichment.Language,
	})

	presenceHandler := handlers.NewPresenceHandler(presenceRepo, sessions, hub, audit)
	sessionHandler := handlers.NewSessionHandler(presenceRepo, scorer, sessions, audit)
	connectionHandler := handlers.NewConnectionHandler(connRepo, audit)

	labWS := ws.NewLabWebSocketHandler(hub, authClient)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Presence.SweepSchedule, func() {
		sweepStalePresence(presenceRepo, sessions, hub, cfg.Presence.TTL.Std())
	}); err != nil {
		log.Fatalf("invalid sweep schedule %q: %v", cfg.Presence.SweepSchedule, err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authClient)

	router.POST("/presence/checkin", authMiddleware, presenceHandler.CheckIn)
	router.POST("/presence/checkout", authMiddleware, presenceHandler.CheckOut)
	router.PATCH("/presence/status", authMiddleware, presenceHandler.UpdateStatus)
	router.PATCH("/presence/skills", authMiddleware, presenceHandler.UpdateSkills)
	router.GET("/labs/:lab_id/presence", authMiddleware, presenceHandler.ListLabPresence)
	router.GET("/labs/:lab_id/skills", authMiddleware, presenceHandler.LabSkills)

	router.POST("/matches/score", authMiddleware, sessionHandler.ScorePair)
	router.POST("/sessions/invite", authMiddleware, sessionHandler.Invite)
	router.POST("/sessions/reveal", authMiddleware, sessionHandler.Reveal)
	router.POST("/sessions/close-reveal", authMiddleware, sessionHandler.CloseReveal)
	router.POST("/sessions/end", authMiddleware, sessionHandler.End)
	router.POST("/sessions/reset", authMiddleware, sessionHandler.Reset)
	router.GET("/sessions/current", authMiddleware, sessionHandler.Current)

	router.GET("/connections", authMiddleware, connectionHandler.List)
	router.PATCH("/connections/:connection_id/note", authMiddleware, connectionHandler.UpdateNote)

	router.GET("/ws/labs/:lab_id", labWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Server.DebugRoutes {
		debugHandler := handlers.NewDebugHandler(audit)
		router.POST("/debug/audit-test", authMiddleware, debugHandler.AuditTest)
	}

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// sweepStalePresence checks out users whose presence went unseen past
// the TTL, tearing down their sessions and telling their labs.
func sweepStalePresence(presenceRepo repositories.PresenceRepository, sessions *session.Manager, hub *ws.Hub, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := presenceRepo.ExpireStale(ctx, ttl)
	if err != nil {
		log.Printf("stale presence sweep failed: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	for _, rec := range expired {
		sessions.Drop(rec.UserID)
		if rec.LabID != nil {
			hub.BroadcastLab(*rec.LabID, models.LabEvent{Type: "checked_out", UserID: rec.UserID})
		}
	}
	log.Printf("stale presence sweep checked out %d users", len(expired))
}
