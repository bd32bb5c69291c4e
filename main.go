package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"bibliotecas-backend/internal/library/books"
	"bibliotecas-backend/internal/library/borrowers"
	"bibliotecas-backend/internal/library/fines"
	"bibliotecas-backend/internal/library/loans"
	"bibliotecas-backend/internal/library/returns"
	"bibliotecas-backend/internal/platform/auth"
	"bibliotecas-backend/internal/platform/db"
)

func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if mode != "dev" && mode != "release" {
		fmt.Println("Usage: go run main.go [dev|release]")
		return
	}

	dailyRate, err := decimal.NewFromString(cfg.Library.FineDailyRate)
	if err != nil || !dailyRate.IsPositive() {
		log.Fatalf("[ERROR] invalid library.fine_daily_rate: %q", cfg.Library.FineDailyRate)
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)
	log.Printf("[INFO] fine daily rate: %s", dailyRate.StringFixed(2))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Location"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	secret := []byte(cfg.Library.JWTSecret)

	// 認証は公開、それ以外の /api/v1 は職員トークン必須
	authGroup := r.Group("/api/v1/auth")
	auth.RegisterRoutes(authGroup, auth.NewService(conn, secret))

	api := r.Group("/api/v1")
	api.Use(auth.RequireAuth(secret))
	books.RegisterRoutes(api, books.NewService(conn))
	borrowers.RegisterRoutes(api, borrowers.NewService(conn))
	loans.RegisterRoutes(api, loans.NewService(conn))
	returns.RegisterRoutes(api, returns.NewService(conn, dailyRate))
	fines.RegisterRoutes(api, fines.NewService(conn))

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
