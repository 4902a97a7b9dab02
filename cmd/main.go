package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"complaintdesk/backend/internal/api/handler"
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/feed"
	"complaintdesk/backend/internal/localization"
	"complaintdesk/backend/internal/storage"
	"complaintdesk/backend/internal/telegram"
)

func main() {
	log.Println("Starting complaint tracker backend...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Storage, Redis and migrations
	s, err := storage.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up storage: %v", err)
	}
	defer s.Close()

	// 2. Identity
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	var google auth.GoogleVerifier
	if cfg.GoogleClientID != "" {
		google = auth.NewIDTokenVerifier(cfg.GoogleClientID)
	} else {
		log.Println("WARNING: GOOGLE_CLIENT_ID is not set, Google login is disabled")
	}
	identity := auth.NewIdentityService(s, tokens, google, auth.AdminAccount{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})
	if cfg.AdminPassword != "" {
		if _, err := identity.SetupAdmin(ctx); err != nil {
			log.Printf("ERROR: Failed to set up admin account: %v", err)
		}
	}

	// 3. Event sinks
	hub := feed.NewHub(s.Redis)
	sinks := []complaint.EventSink{hub}
	if cfg.TelegramEnabled() {
		if notifier, err := newNotifier(cfg); err != nil {
			log.Printf("ERROR: Telegram notifications disabled: %v", err)
		} else {
			sinks = append(sinks, notifier)
			go notifier.Run(ctx)
		}
	}
	go func() {
		if err := hub.Run(ctx); err != nil {
			log.Printf("ERROR: Live feed stopped: %v", err)
		}
	}()

	complaints := complaint.NewService(s, identity.Gate, s.Locker(), sinks...)

	// 4. HTTP
	h := handler.NewHandler(complaints, identity, hub)
	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        handler.NewRouter(h, cfg.CORSOrigins),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("INFO: listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Graceful shutdown failed: %v", err)
	}
}

func newNotifier(cfg *config.Config) (*telegram.Notifier, error) {
	localizer, err := localization.NewLocalizer(cfg.LocalizationDir)
	if err != nil {
		return nil, err
	}
	lang := cfg.NotifyLang
	if !localizer.HasLang(lang) {
		log.Printf("WARNING: no %s catalog, notifications fall back to %s", lang, localization.DefaultLang)
	}
	return telegram.NewBotNotifier(cfg.TelegramBotToken, cfg.TelegramAdminChatID, localizer, lang)
}
