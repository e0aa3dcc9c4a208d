package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/aurelia-care/aurelia/internal/adapters/http"
	"github.com/aurelia-care/aurelia/internal/adapters/llm"
	"github.com/aurelia-care/aurelia/internal/adapters/sms"
	"github.com/aurelia-care/aurelia/internal/adapters/speechws"
	firestorestore "github.com/aurelia-care/aurelia/internal/adapters/storage/firestore"
	memstore "github.com/aurelia-care/aurelia/internal/adapters/storage/memory"
	sqlitestore "github.com/aurelia-care/aurelia/internal/adapters/storage/sqlite"
	"github.com/aurelia-care/aurelia/internal/adapters/tts"
	"github.com/aurelia-care/aurelia/internal/app/conversation"
	"github.com/aurelia-care/aurelia/internal/app/escalation"
	"github.com/aurelia-care/aurelia/internal/app/memorysynth"
	"github.com/aurelia-care/aurelia/internal/app/session"
	"github.com/aurelia-care/aurelia/internal/app/turn"
	"github.com/aurelia-care/aurelia/internal/config"
	"github.com/aurelia-care/aurelia/internal/domain"
	"github.com/aurelia-care/aurelia/internal/observability"
)

func main() {
	_ = godotenv.Load()

	log := observability.Logger()
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Snapshot store.
	var snapshots domain.SnapshotStore
	switch cfg.StorageBackend {
	case "firestore":
		log.Info("using firestore storage", "project", cfg.GCPProjectID)
		store, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Error("firestore store init failed", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		snapshots = store
	case "sqlite":
		log.Info("using sqlite storage", "path", cfg.DBPath)
		store, err := sqlitestore.NewStore(cfg.DBPath)
		if err != nil {
			log.Error("sqlite store init failed", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		snapshots = store
	default:
		log.Info("using in-memory storage")
		snapshots = memstore.NewSnapshotStore()
	}

	// Model gateway and speech synthesis.
	var (
		gateway     domain.ModelGateway
		synthesizer domain.SpeechSynthesizer
	)
	if cfg.UseMockLLM {
		log.Info("using mock model gateway")
		gateway = llm.NewMockGateway()
	} else {
		client, err := llm.NewVertexClient(ctx, cfg.GCPProjectID, cfg.GCPLocation)
		if err != nil {
			log.Error("vertex client init failed", "error", err)
			os.Exit(1)
		}
		log.Info("using gemini model gateway",
			"text_model", cfg.TextModel, "title_model", cfg.TitleModel)
		gateway = llm.NewGeminiGateway(client, cfg.TextModel, cfg.TitleModel)

		if cfg.VoiceEnabled {
			log.Info("voice replies enabled", "tts_model", cfg.TTSModel, "voice", cfg.TTSVoice)
			synthesizer = tts.NewSynthesizer(client, cfg.TTSModel, cfg.TTSVoice)
		}
	}

	// Escalation delivery. Missing credentials put the workflow in simulated
	// mode rather than disabling it.
	var deliverer domain.MessageDeliverer
	if cfg.DeliveryConfigured() {
		d, err := sms.NewDeliverer(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
		if err != nil {
			log.Error("sms deliverer init failed", "error", err)
			os.Exit(1)
		}
		log.Info("escalation delivery configured")
		deliverer = d
	} else {
		log.Info("escalation delivery not configured, alerts will be simulated")
	}

	sessions := session.NewManager(snapshots)
	orchestrator := turn.NewOrchestrator(gateway, synthesizer)
	memSynth := memorysynth.NewSynthesizer(gateway)
	escalationSvc := escalation.NewService(gateway, deliverer, cfg.EmergencyContact)

	svc := conversation.NewService(
		sessions, orchestrator, memSynth, escalationSvc, gateway, cfg.SynthesisEvery)

	handler := httpadapter.NewServer(svc, snapshots, speechws.NewHandler("en-US"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("aurelia api listening", "port", cfg.Port, "mode", string(cfg.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
