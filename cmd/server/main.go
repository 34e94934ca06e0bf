package main

import (
	"fmt"
	"log"

	"scriba/internal/config"
	"scriba/internal/handlers"
	"scriba/internal/storage"
	"scriba/internal/version"
	"scriba/internal/youtube"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal(err)
	}

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	jobRepo := storage.NewJobRepository(db)
	transcriptRepo := storage.NewTranscriptRepository(db)

	uploadHandler := handlers.NewUploadHandler(cfg, jobRepo)
	youtubeHandler := handlers.NewYouTubeHandler(cfg, jobRepo, youtube.NewClient())
	jobHandler := handlers.NewJobHandler(jobRepo, transcriptRepo)
	exportHandler := handlers.NewExportHandler(jobRepo, transcriptRepo)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Server.MaxHeaderBytes = 1 << 20

	e.POST("/api/upload", uploadHandler.Upload)
	e.POST("/api/youtube", youtubeHandler.Submit)
	e.GET("/api/youtube/probe", youtubeHandler.Probe)
	e.GET("/api/jobs", jobHandler.List)
	e.GET("/api/jobs/:id", jobHandler.Get)
	e.GET("/api/jobs/:id/transcript", jobHandler.GetTranscript)
	e.PUT("/api/jobs/:id/transcript", jobHandler.UpdateTranscript)
	e.GET("/api/jobs/:id/export", exportHandler.Export)
	e.GET("/api/stats", jobHandler.Stats)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"version": version.Version,
		})
	})

	log.Printf("Starting Scriba API v%s on port %s", version.Version, cfg.Port)
	if err := e.Start(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		log.Fatal(err)
	}
}
