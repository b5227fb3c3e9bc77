package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/asrat/dietbuddy-intake/internal/classifier"
	"github.com/asrat/dietbuddy-intake/internal/config"
	"github.com/asrat/dietbuddy-intake/internal/gatekeeper"
	"github.com/asrat/dietbuddy-intake/internal/handlers"
	"github.com/asrat/dietbuddy-intake/internal/llm"
	"github.com/asrat/dietbuddy-intake/internal/medval"
	"github.com/asrat/dietbuddy-intake/internal/memory"
	"github.com/asrat/dietbuddy-intake/internal/orchestrator"
	"github.com/asrat/dietbuddy-intake/internal/retrieval"
	"github.com/asrat/dietbuddy-intake/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("🚀 Starting DietBuddy Intake Service...")

	cfg := config.Load()
	log.Printf("📋 Service: %s", cfg.ServiceName)
	log.Printf("📡 NATS URL: %s", cfg.NatsURL)
	log.Printf("🤖 Anthropic Model: %s", cfg.AnthropicModel)

	// Session store: Redis when reachable, otherwise a single-instance
	// in-memory fallback.
	var store memory.Store
	log.Println("🔌 Connecting to Redis...")
	redisStore, err := memory.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		log.Printf("⚠️ Redis unavailable (%v), falling back to in-memory sessions", err)
		store = memory.NewInMemStore(cfg.SessionTTL)
	} else {
		log.Println("✅ Redis connected")
		store = redisStore
	}

	memoryManager := memory.NewManager(store)
	defer memoryManager.Close()
	log.Println("✅ Memory manager initialized")

	// Generative answerer: degrade to the offline message when no key is
	// configured instead of refusing to start.
	var provider llm.Provider
	if cfg.AnthropicAPIKey != "" {
		p, err := llm.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, 1024)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Anthropic provider: %v", err)
		}
		provider = p
		log.Println("✅ Anthropic provider initialized")
	} else {
		log.Println("⚠️ ANTHROPIC_API_KEY not set, answers degrade to offline message")
	}
	answerer := llm.NewAnswerer(provider)

	var validator medval.Validator = medval.Disabled{}
	if cfg.MedValEnabled {
		validator = medval.NewRxNorm(cfg.MedValTimeout, cfg.MedValConfidence).WithBaseURL(cfg.MedValBaseURL)
		log.Println("✅ RxNorm medication validator enabled")
	}

	registry := orchestrator.NewRegistry(cfg.SessionTTL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	registry.StartSweeper(ctx, cfg.SweepInterval)

	orch := orchestrator.New(
		classifier.NewAdapter(classifier.NewKeywordClassifier()),
		validator,
		retrieval.Unavailable{},
		answerer,
		memoryManager,
		registry,
		gatekeeper.Config{
			GeneralConfidenceFloor: cfg.GeneralConfidenceFloor,
			TherapyConfidenceFloor: cfg.TherapyConfidenceFloor,
		},
	)

	chatHandler := handlers.NewChatHandler(orch)
	log.Println("✅ Chat handler initialized")

	log.Println("📡 Connecting to NATS...")
	natsTransport, err := transport.NewNATSTransport(cfg, chatHandler)
	if err != nil {
		log.Fatalf("❌ Failed to initialize NATS transport: %v", err)
	}
	defer natsTransport.Close()

	if err := natsTransport.Start(); err != nil {
		log.Fatalf("❌ Failed to start NATS transport: %v", err)
	}

	log.Println("✅ DietBuddy Intake Service is running!")
	log.Printf("👂 Listening on subject: %s", cfg.NatsRequestSubject)
	log.Printf("📊 Active sessions: %d", memoryManager.GetActiveSessionCount())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("🛑 Received signal: %v", sig)
	log.Println("🔄 Shutting down gracefully...")

	log.Printf("📊 Final session count: %d", memoryManager.GetActiveSessionCount())

	if err := memoryManager.Close(); err != nil {
		log.Printf("⚠️ Error closing memory manager: %v", err)
	}
	if err := natsTransport.Close(); err != nil {
		log.Printf("⚠️ Error closing NATS transport: %v", err)
	}

	log.Println("👋 DietBuddy Intake Service stopped")
}
