package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"goalmentor/internal/api"
	"goalmentor/internal/auth"
	"goalmentor/internal/config"
	"goalmentor/internal/llm"
	"goalmentor/internal/mentor"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	client := llm.NewClient(llm.Config{
		URL:         cfg.Oracle.URL,
		Model:       cfg.Oracle.Model,
		Timeout:     time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second,
		Temperature: cfg.Oracle.Temperature,
	})
	log.Printf("[Main] Oracle: %s (%s)", cfg.Oracle.Model, cfg.Oracle.URL)

	deps := &api.Deps{
		Cfg:      cfg,
		Users:    auth.NewUserStore(),
		Sessions: auth.NewSessionStore(),
		Registry: mentor.NewRegistry(cfg.Autonomy.AutoSubtasks),
		Oracle:   mentor.NewLLMOracle(client),
	}

	r := api.SetupRouter(deps)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s%s\n", addr, cfg.Server.Subpath)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
