package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"compass/pkg/agent"
	"compass/pkg/config"
	"compass/pkg/handler"
	"compass/pkg/llm"
	_ "compass/pkg/llm/autoload" // registers every LLM provider
	"compass/pkg/monitor"
	"compass/pkg/search"
	"compass/pkg/tools"
)

func main() {
	os.Exit(run())
}

func run() int {
	// --- 0. Environment and config ---
	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️ Warning: %v\n", err)
	}

	cfg, sysCfg, err := config.Load("config.json", "system.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load configuration: %v\n", err)
		return 1
	}
	monitor.SetupSlog(sysCfg.LogLevel)

	// --- 1. Credentials ---
	keys := requiredKeys(cfg)
	monitor.PrintBanner(os.Stdout, cfg.LLM.Type, cfg.LLM.Model, keys)

	creds, err := config.ResolveCredentials(cfg)
	if err != nil {
		slog.Error("Credential check failed", "error", err)
		for _, k := range keys {
			if os.Getenv(k.Env) == "" {
				monitor.PrintMissingKey(os.Stdout, k.Env, keys)
				break
			}
		}
		return 1
	}
	fmt.Println("✅ API keys loaded successfully!")

	// --- 2. Reasoning engine ---
	fmt.Println("\n🤖 Initializing agent...")
	client, err := llm.NewFromConfig(cfg.LLM, creds.ModelAPIKey, sysCfg)
	if err != nil {
		fmt.Printf("\n❌ Failed to initialize agent: %v\n", err)
		return 1
	}

	registry := tools.NewToolRegistry(
		tools.NewDateTimeTool(),
		tools.NewWeatherTool(cfg.Weather.BaseURL, time.Duration(sysCfg.WeatherTimeoutMs)*time.Millisecond),
		tools.NewWebSearchTool(search.NewClient(creds.SearchAPIKey, cfg.Search.BaseURL), cfg.Search),
	)

	cli := monitor.NewCLIMonitor(os.Stdout, sysCfg.ShowToolTrace)
	engine := agent.NewToolCallingEngine(client, sysCfg)
	engine.SetObserver(cli)
	executor := agent.NewTurnExecutor(engine, registry, cfg.SystemPrompt)
	fmt.Println("✅ Agent ready!")
	fmt.Println()

	// --- 3. Chat loop ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	history := llm.NewChatHistory(sysCfg.HistoryMaxTurns)
	h := handler.NewChatHandler(executor, history, cli, os.Stdout, sysCfg.HistoryPreviewChars)
	if err := h.Run(context.Background(), os.Stdin, sigChan); err != nil {
		slog.Error("Chat loop stopped", "error", err)
		return 1
	}
	return 0
}

// requiredKeys lists the environment variables the configured stack reads.
func requiredKeys(cfg *config.Config) []monitor.KeyRequirement {
	var keys []monitor.KeyRequirement
	if env := cfg.LLM.KeyEnv(); env != "" {
		keys = append(keys, monitor.KeyRequirement{Env: env, Purpose: "LLM"})
	}
	keys = append(keys, monitor.KeyRequirement{Env: cfg.Search.KeyEnv(), Purpose: "web search"})
	return keys
}
