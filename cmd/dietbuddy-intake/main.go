// Local console for exercising the intake flow without NATS or Redis:
// sessions live in memory and answers degrade to the offline message unless
// an Anthropic key is configured.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/asrat/dietbuddy-intake/internal/classifier"
	"github.com/asrat/dietbuddy-intake/internal/config"
	"github.com/asrat/dietbuddy-intake/internal/gatekeeper"
	"github.com/asrat/dietbuddy-intake/internal/llm"
	"github.com/asrat/dietbuddy-intake/internal/medval"
	"github.com/asrat/dietbuddy-intake/internal/memory"
	"github.com/asrat/dietbuddy-intake/internal/models"
	"github.com/asrat/dietbuddy-intake/internal/orchestrator"
	"github.com/asrat/dietbuddy-intake/internal/retrieval"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	var provider llm.Provider
	if cfg.AnthropicAPIKey != "" {
		p, err := llm.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, 1024)
		if err != nil {
			log.Fatalf("Failed to initialize Anthropic provider: %v", err)
		}
		provider = p
	}

	var validator medval.Validator = medval.Disabled{}
	if cfg.MedValEnabled {
		validator = medval.NewRxNorm(cfg.MedValTimeout, cfg.MedValConfidence).WithBaseURL(cfg.MedValBaseURL)
	}

	orch := orchestrator.New(
		classifier.NewAdapter(classifier.NewKeywordClassifier()),
		validator,
		retrieval.Unavailable{},
		llm.NewAnswerer(provider),
		memory.NewManager(memory.NewInMemStore(cfg.SessionTTL)),
		orchestrator.NewRegistry(cfg.SessionTTL),
		gatekeeper.Config{
			GeneralConfidenceFloor: cfg.GeneralConfidenceFloor,
			TherapyConfidenceFloor: cfg.TherapyConfidenceFloor,
		},
	)

	sessionID := orchestrator.NewSessionID()
	fmt.Printf("DietBuddy intake console (session %s). Type 'quit' to exit.\n\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}

		resp := orch.HandleTurn(context.Background(), &models.ChatRequest{
			SessionID: sessionID,
			UserText:  text,
		})
		fmt.Println()
		fmt.Println(resp.Answer)
		if len(resp.Warnings) > 0 {
			fmt.Printf("[warnings: %s]\n", strings.Join(resp.Warnings, ", "))
		}
		fmt.Println()
	}
}
