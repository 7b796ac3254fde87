// Command chunk streams one prompt through the configured provider with
// chunk dumps enabled, for inspecting what a provider actually sends.
//
//	go run ./chunk "What time is it in Tokyo?"
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"compass/pkg/agent"
	"compass/pkg/config"
	"compass/pkg/llm"
	_ "compass/pkg/llm/autoload"
	"compass/pkg/monitor"
	"compass/pkg/tools"
	"compass/pkg/utils"
)

func main() {
	withTools := flag.Bool("tools", false, "offer the offline tools (clock) to the model")
	flag.Parse()

	prompt := strings.Join(flag.Args(), " ")
	if prompt == "" {
		prompt = "Briefly explain what a Go channel is."
	}

	if err := config.LoadEnv(".env"); err != nil {
		slog.Warn("Failed to load .env", "error", err)
	}
	cfg, sysCfg, err := config.Load("config.json", "system.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	monitor.SetupSlog("debug")

	apiKey := ""
	if env := cfg.LLM.KeyEnv(); env != "" {
		apiKey = os.Getenv(env)
	}

	sysCfg.DebugChunks = true
	client, err := llm.NewFromConfig(cfg.LLM, apiKey, sysCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "llm: %v\n", err)
		os.Exit(1)
	}

	var offered []llm.Tool
	if *withTools {
		for _, t := range tools.NewToolRegistry(tools.NewDateTimeTool()).GetAll() {
			offered = append(offered, t)
		}
	}

	debugID := utils.GenerateID()
	ctx := context.WithValue(context.Background(), llm.DebugDirContextKey, debugID)
	messages := []llm.Message{
		llm.NewSystemMessage(cfg.SystemPrompt),
		llm.NewUserMessage(prompt),
	}

	fmt.Println("=== streaming ===")
	chunkCh, err := client.StreamChat(ctx, messages, offered)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stream: %v\n", err)
		os.Exit(1)
	}

	count := 0
	msg := llm.Message{Role: llm.RoleAssistant}
	for chunk := range chunkCh {
		count++
		agent.ProcessChunk(chunk, &msg)
		for _, b := range chunk.ContentBlocks {
			if b.Type == llm.BlockTypeText {
				fmt.Print(b.Text)
			}
		}
		if chunk.Error != "" {
			fmt.Fprintf(os.Stderr, "\nerror chunk: %s\n", chunk.Error)
		}
	}

	fmt.Printf("\n=== done: %d chunks, %d tool calls, dumps under debug/chunks/%s ===\n", count, len(msg.ToolCalls), debugID)
	for _, tc := range msg.ToolCalls {
		fmt.Printf("tool call %s: %s(%s)\n", tc.ID, tc.Name, tc.Function.Arguments)
	}
}
