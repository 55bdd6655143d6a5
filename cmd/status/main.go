// Command status is the terminal rendition of the dashboard's health panel:
// it mounts the status view, waits for the one-shot fetch to settle, and
// prints the pretty-printed health payload to stdout. Diagnostics go to
// stderr so stdout carries only the rendered block.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/payinhq/payin-calculator/internal/observability"
	"github.com/payinhq/payin-calculator/internal/statusview"
)

func main() {
	endpoint := pflag.String("endpoint", "http://localhost:8080/health", "Health endpoint to fetch")
	timeout := pflag.Duration("timeout", 15*time.Second, "Fetch timeout")
	logLevel := pflag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := pflag.String("log-format", "console", "Log format: json, console")

	pflag.Parse()

	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  *logLevel,
		Format: *logFormat,
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	view := statusview.New(*endpoint,
		statusview.WithLogger(logger.Logger),
		statusview.WithTimeout(*timeout),
		statusview.WithHTTPClient(&http.Client{Timeout: *timeout}),
	)

	view.Mount(context.Background())
	<-view.Done()
	defer view.Unmount()

	rendered := view.Render()
	if rendered == "" {
		// The view surfaces nothing on failure; the exit code is for scripts
		os.Exit(1)
	}

	fmt.Println(rendered)
}
