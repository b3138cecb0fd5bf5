package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"syncchat/config"
	"syncchat/logger"
	"syncchat/metrics"
	"syncchat/middleware"
	midsec "syncchat/middleware/security"
	"syncchat/module/chat/channel"
	"syncchat/module/chat/message"
	"syncchat/module/contact"
	"syncchat/module/upload"
	"syncchat/module/user"
	"syncchat/service/chat"
	"syncchat/service/chat/handlers"
	"syncchat/service/kafka"
	"syncchat/service/mgo"
	"syncchat/service/natsx"
	"syncchat/service/storage"
	"syncchat/service/storage/redis"
	"syncchat/tools/ids"
	"syncchat/tools/safe"
	toolsec "syncchat/tools/security"
)

func main() {
	if err := config.Initialize(); err != nil {
		logger.Fatalf("config: %v", err)
	}
	cfg := config.Get()
	ids.SetNodeID(cfg.Server.NodeID)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mgo.Connect(ctx, cfg.Mongo); err != nil {
		logger.Fatalf("mongo: %v", err)
	}
	if err := redis.Init(cfg.Redis); err != nil {
		logger.Fatalf("redis: %v", err)
	}

	db := mgo.GetDB()
	users := user.NewService(db)
	msgStore := message.NewStore(db)
	msgSvc := message.NewService(db)
	chSvc := channel.NewService(db)
	resolver := channel.NewResolver(db)

	{
		ictx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := users.EnsureIndexes(ictx); err != nil {
			logger.Warnf("user indexes: %v", err)
		}
		if err := msgStore.EnsureIndexes(ictx); err != nil {
			logger.Warnf("message indexes: %v", err)
		}
		if err := chSvc.EnsureIndexes(ictx); err != nil {
			logger.Warnf("channel indexes: %v", err)
		}
		cancel()
	}

	presence := storage.NewPresenceManager(cfg.Server.GatewayID)

	var relay *natsx.Relay
	if cfg.Nats.Enabled {
		r, err := natsx.NewRelay(cfg.Nats)
		if err != nil {
			logger.Fatalf("nats: %v", err)
		}
		relay = r
		defer relay.Close()
	}

	var events *kafka.EventProducer
	if cfg.Kafka.Enabled {
		p, err := kafka.NewEventProducer(cfg.Kafka)
		if err != nil {
			logger.Fatalf("kafka: %v", err)
		}
		events = p
		defer func() { _ = events.Close() }()
	}

	reg := chat.NewRegistry()
	deps := chat.RouterDeps{
		Registry: reg,
		Store:    msgStore,
		Resolver: resolver,
		Presence: presence,
	}
	if relay != nil {
		deps.Relay = relay
	}
	if events != nil {
		deps.Events = events
	}
	router := chat.NewRouter(cfg.Server.GatewayID, cfg.WebSocket.MaxPayloadSize, deps)

	jwtOpts := toolsec.Options{
		Secret: []byte(cfg.Auth.JWTSecret),
		Alg:    "HS256",
		TTL:    time.Duration(cfg.Auth.TokenTTL) * time.Hour,
	}
	srv := chat.NewServer(cfg.Server.GatewayID, cfg.WebSocket, chat.ServerDeps{
		Registry: reg,
		Router:   router,
		Auth:     user.NewAuthenticator(jwtOpts),
		Presence: presence,
	})
	handlers.RegisterAll(srv)
	srv.StartPresenceRefresh(ctx)

	if relay != nil {
		if err := relay.Subscribe(cfg.Server.GatewayID, srv.HandleRelayPayload); err != nil {
			logger.Fatalf("relay subscribe: %v", err)
		}
	}
	if cfg.Metrics.Enabled {
		metrics.StartServer(cfg.Metrics.Addr, cfg.Metrics.Path)
	}

	engine := buildRoutes(cfg, srv, users, msgSvc, chSvc, jwtOpts)

	httpSrv := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: engine}
	safe.Go("http-server", func() {
		logger.Infof("[gateway] %s listening on %s", cfg.Server.GatewayID, cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	})

	grpcSrv := startHealthServer(cfg.Server.HealthAddr)

	<-ctx.Done()
	logger.Info("shutting down")

	shctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shctx)
	_ = httpSrv.Shutdown(shctx)
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	_ = redis.Close()
	_ = mgo.Disconnect(shctx)
}

func buildRoutes(
	cfg *config.AppConfig,
	srv *chat.Server,
	users *user.Service,
	msgSvc *message.Service,
	chSvc *channel.Service,
	jwtOpts toolsec.Options,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.Origin("*"))

	authOpts := midsec.DefaultOptions(jwtOpts)
	userH := user.NewHandler(users, jwtOpts, false)
	contactH := contact.NewHandler(users, msgSvc)
	msgH := message.NewHandler(msgSvc)
	chH := channel.NewHandler(chSvc, msgSvc)

	uploadH, err := upload.NewHandler(cfg.Upload.Dir, cfg.Upload.BaseURL, cfg.Upload.MaxSize)
	if err != nil {
		logger.Fatalf("upload dir: %v", err)
	}

	api := engine.Group("/api")
	middleware.POST(api, "/auth/signup", userH.Signup, authOpts, middleware.RouteOpt{})
	middleware.POST(api, "/auth/login", userH.Login, authOpts, middleware.RouteOpt{})
	middleware.POST(api, "/auth/logout", userH.Logout, authOpts, middleware.RouteOpt{})
	middleware.GET(api, "/auth/check", userH.Check, authOpts, middleware.RouteOpt{IsAuth: true})
	middleware.PUT(api, "/auth/profile", userH.UpdateProfile, authOpts, middleware.RouteOpt{IsAuth: true})

	middleware.GET(api, "/contacts", contactH.ListContacts, authOpts, middleware.RouteOpt{IsAuth: true})
	middleware.GET(api, "/contacts/search", contactH.Search, authOpts, middleware.RouteOpt{IsAuth: true})
	middleware.GET(api, "/contacts/chats", contactH.ListChatPartners, authOpts, middleware.RouteOpt{IsAuth: true})

	middleware.GET(api, "/messages/:id", msgH.History, authOpts, middleware.RouteOpt{IsAuth: true})

	middleware.POST(api, "/channel", chH.Create, authOpts, middleware.RouteOpt{IsAuth: true})
	middleware.GET(api, "/channel", chH.List, authOpts, middleware.RouteOpt{IsAuth: true})
	middleware.GET(api, "/channel/:id", chH.Get, authOpts, middleware.RouteOpt{IsAuth: true})
	middleware.POST(api, "/channel/:id/members", chH.AddMembers, authOpts, middleware.RouteOpt{IsAuth: true})
	middleware.POST(api, "/channel/:id/leave", chH.Leave, authOpts, middleware.RouteOpt{IsAuth: true})
	middleware.GET(api, "/channel/:id/messages", chH.Messages, authOpts, middleware.RouteOpt{IsAuth: true})

	middleware.POST(api, "/upload", uploadH.Upload, authOpts, middleware.RouteOpt{IsAuth: true})
	uploadH.ServeDir(engine, cfg.Upload.BaseURL)

	// ws clients authenticate in-band with the first frame
	engine.GET("/chat", srv.HandleWS)

	return engine
}

// startHealthServer exposes the standard gRPC health service so the
// orchestrator can probe readiness apart from the public HTTP port.
func startHealthServer(addr string) *grpc.Server {
	if addr == "" {
		return nil
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatalf("health listen: %v", err)
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	safe.Go("grpc-health", func() {
		if err := gs.Serve(lis); err != nil {
			logger.Errorf("health server: %v", err)
		}
	})
	return gs
}
