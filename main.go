package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/quillbooks/quillbooks/cmd"
	"github.com/quillbooks/quillbooks/internal/config"
	"github.com/quillbooks/quillbooks/internal/logger"
)

func main() {
	// .env is optional; real config comes from file and env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logger: %v\n", err)
		os.Exit(1)
	}

	cmd.Execute(cfg)
}
