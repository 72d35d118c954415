package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/andriizhk/contact-api/internal/config"
	"github.com/andriizhk/contact-api/internal/database"
	"github.com/andriizhk/contact-api/internal/handler"
	"github.com/andriizhk/contact-api/internal/queue"
	"github.com/andriizhk/contact-api/internal/repository"
	"github.com/andriizhk/contact-api/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	contacts := repository.NewContactRepo(db)

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	authH := handler.NewAuthHandler(cfg, users)
	contactH := handler.NewContactHandler(contacts)
	healthH := handler.NewHealthHandler(db)

	e := echo.New()
	router.RegisterRoutes(e, cfg, users, authH, contactH, healthH, rdb)

	// The activity consumer keeps its own reconnect loop and never returns
	// under normal operation.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
