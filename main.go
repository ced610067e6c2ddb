package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Sathvik-Nagesh/GeoSnap/ai"
	"github.com/Sathvik-Nagesh/GeoSnap/api"
	"github.com/Sathvik-Nagesh/GeoSnap/config"
	"github.com/Sathvik-Nagesh/GeoSnap/geocode"
	"github.com/Sathvik-Nagesh/GeoSnap/metadata"
	"github.com/Sathvik-Nagesh/GeoSnap/pipeline"
	"github.com/Sathvik-Nagesh/GeoSnap/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config.Load()

	db := &storage.MongoRecordDB{Log: logger}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection); err != nil {
		cancel()
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	cancel()
	defer db.Close(context.Background()) //nolint:errcheck

	images := &storage.LocalImageStore{
		Directory: cfg.UploadDir,
		Log:       logger,
	}

	pipe := pipeline.New(
		metadata.NewExtractor(logger),
		geocode.NewClient(cfg.NominatimBaseURL, logger),
		ai.NewGuesser(cfg.AnthropicAPIKey, cfg.AnthropicModel, logger),
		logger,
	)

	handlers := &api.Handlers{
		Pipeline:     pipe,
		Records:      db,
		Images:       images,
		Log:          logger,
		SecretKey:    cfg.JWTSecret,
		PasswordHash: cfg.PasswordHash,
	}

	router := mux.NewRouter()
	handlers.Register(router)

	logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
