package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/openaxle/go-parts-market/internal/auth"
	"github.com/openaxle/go-parts-market/internal/cart"
	"github.com/openaxle/go-parts-market/internal/catalog"
	"github.com/openaxle/go-parts-market/internal/community"
	"github.com/openaxle/go-parts-market/internal/config"
	"github.com/openaxle/go-parts-market/internal/httpx"
	"github.com/openaxle/go-parts-market/internal/inventory"
	kafkax "github.com/openaxle/go-parts-market/internal/kafka"
	"github.com/openaxle/go-parts-market/internal/orders"
	"github.com/openaxle/go-parts-market/internal/postgres"
	"github.com/openaxle/go-parts-market/internal/redisx"
	"github.com/openaxle/go-parts-market/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	// Stores
	txRunner := &postgres.TxRunner{Pool: db, Timeout: 10 * time.Second}
	partStore := &catalog.PG{Pool: db}
	cartStore := &cart.PG{Pool: db}
	ledger := &inventory.PG{Pool: db}
	orderStore := &orders.PGStore{Pool: db}
	userStore := &users.PG{Pool: db}
	postStore := &community.PG{Pool: db, Tx: txRunner}

	// Order flow
	tax := orders.ZeroTax
	if cfg.TaxRateBps > 0 {
		tax = orders.FlatRate(cfg.TaxRateBps)
	}
	engine := &orders.Engine{
		Orders: orderStore,
		Carts:  cartStore,
		Ledger: ledger,
		Prices: partStore,
		Tax:    tax,
		Tx:     txRunner,
	}
	lifecycle := &orders.Lifecycle{Orders: orderStore, Ledger: ledger, Tx: txRunner}
	reconciler := &orders.Reconciler{Engine: engine, Orders: orderStore, Carts: cartStore}

	// HTTP
	jwtSvc := auth.NewJWTService(cfg.JWTSecret, 24*time.Hour)
	events := &httpx.OrderEvents{Producer: prod, Redis: rdb, Service: cfg.ServiceName}

	router := httpx.NewRouter()
	(&httpx.AuthHandler{Users: userStore, JWT: jwtSvc}).Register(router)
	(&httpx.PartsHandler{Parts: partStore, Ledger: ledger}).Register(router)
	(&httpx.CartHandler{Carts: cartStore, JWT: jwtSvc}).Register(router)
	(&httpx.OrdersHandler{
		Engine:     engine,
		Reconciler: reconciler,
		Orders:     orderStore,
		Redis:      rdb,
		Events:     events,
		JWT:        jwtSvc,
	}).Register(router)
	(&httpx.WebhookHandler{Reconciler: reconciler, Orders: orderStore, Redis: rdb, Events: events}).Register(router)
	(&httpx.AdminHandler{
		Parts:     partStore,
		Ledger:    ledger,
		Orders:    orderStore,
		Lifecycle: lifecycle,
		Events:    events,
		JWT:       jwtSvc,
	}).Register(router)
	(&httpx.CommunityHandler{Posts: postStore, JWT: jwtSvc}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
