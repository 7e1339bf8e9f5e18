package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"run4recht/internal/config"
	"run4recht/internal/output"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "Config file (env: R4R_CONFIG, default config/config.yaml)")
		apiBase = flag.String("api-base", "", "Server base URL (overrides agent.api_base)")
		outFmt  = flag.String("output", "text", "Output format: json|text")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		Usage(os.Stderr)
		os.Exit(2)
	}

	path := strings.TrimSpace(*cfgPath)
	if path == "" {
		path = os.Getenv("R4R_CONFIG")
	}
	if path == "" {
		path = "config/config.yaml"
	}
	envOnly := false
	if v := os.Getenv("R4R_ENV_ONLY"); v != "" {
		envOnly = strings.EqualFold(v, "true") || v == "1"
	}
	cfg, err := config.Load(path, envOnly)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if strings.TrimSpace(*apiBase) != "" {
		cfg.Agent.APIBase = strings.TrimRight(strings.TrimSpace(*apiBase), "/")
	}
	format, err := output.ParseFormat(*outFmt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Dispatch(ctx, Context{Config: cfg, Output: format}, args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
