package main

import (
	"log"

	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
	"inkwell/internal/router"
	"inkwell/internal/store"
	"inkwell/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	cache, err := utils.NewCache(500)
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}

	// Stores
	counters := store.NewCounters(conn)
	users := store.NewUserStore(conn)
	posts := store.NewPostStore(conn)
	comments := store.NewCommentStore(conn, counters)
	ratings := store.NewRatingLedger(conn, counters)

	// HTTP
	r := gin.Default()

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("inkwell_session", sessionStore))
	r.Use(middleware.LoadUser(users))

	router.RegisterRoutes(r,
		handlers.NewAuthHandler(users),
		handlers.NewPostHandler(posts, ratings, cache),
		handlers.NewCommentHandler(comments, posts, cache),
		handlers.NewRatingHandler(ratings, posts, cache),
	)

	log.Printf("Inkwell server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
