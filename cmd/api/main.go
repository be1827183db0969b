package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eloity/tiergate/internal/config"
	"github.com/eloity/tiergate/internal/infrastructure/dynamo"
	jwtinfra "github.com/eloity/tiergate/internal/infrastructure/jwt"
	s3infra "github.com/eloity/tiergate/internal/infrastructure/s3"
	"github.com/eloity/tiergate/internal/infrastructure/smtp"
	"github.com/eloity/tiergate/internal/infrastructure/sns"
	transporthttp "github.com/eloity/tiergate/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist) and
	// seed the default feature gates.
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional; graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for KYC documents.
	s3Client := s3infra.NewClient(cfg)
	docStore := s3infra.NewDocumentStore(s3Client, cfg.KYCBucketName)

	// SMTP mailer for email 2FA codes.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional; graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	deps := &transporthttp.Deps{
		ProfileRepo:      dynamo.NewTierProfileRepo(dynamoClient, cfg.DynamoTables.TierProfiles),
		GateRepo:         dynamo.NewFeatureGateRepo(dynamoClient, cfg.DynamoTables.FeatureGates),
		HistoryRepo:      dynamo.NewTierHistoryRepo(dynamoClient, cfg.DynamoTables.TierHistory),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications),
		TwoFactorRepo:    dynamo.NewTwoFactorRepo(dynamoClient, cfg.DynamoTables.TwoFactor),
		RewardRepo: dynamo.NewRewardRepo(dynamoClient,
			cfg.DynamoTables.RewardAccounts,
			cfg.DynamoTables.RewardLedger,
			cfg.DynamoTables.Redemptions,
			cfg.DynamoTables.Referrals),
		DocumentStore: docStore,
		Mailer:        mailer,
		SMSSender:     smsSender,
		JWTProvider:   jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
