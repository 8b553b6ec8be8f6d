package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/siteforms/internal/smoke"
	"github.com/okian/siteforms/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second
	runTimeout     = 2 * time.Minute
)

func main() {
	// the service's .env supplies the default webhook URL
	_ = godotenv.Load()

	var (
		mode     = flag.String("mode", smoke.ModeAPI, "api or sheet")
		baseURL  = flag.String("url", "http://localhost:8080", "Base URL of the service")
		sheetURL = flag.String("sheet-url", os.Getenv("SITEFORMS_SHEETS__URL"), "Spreadsheet webhook URL for -mode sheet")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose  = flag.Bool("verbose", false, "Log every response message")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	report, err := smoke.Run(ctx, &smoke.Config{
		Mode:     *mode,
		BaseURL:  *baseURL,
		SheetURL: *sheetURL,
		Timeout:  *timeout,
		Verbose:  *verbose,
	})
	if report != nil {
		smoke.PrintReport(os.Stdout, report)
	}
	if err != nil {
		os.Stderr.WriteString("smoke failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
