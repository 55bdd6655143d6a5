package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/payinhq/payin-calculator/internal/config"
	"github.com/payinhq/payin-calculator/internal/constants"
	"github.com/payinhq/payin-calculator/internal/hotreload"
	"github.com/payinhq/payin-calculator/internal/security"
	"github.com/payinhq/payin-calculator/internal/server"
)

func main() {
	configFile := pflag.String("config", "", "Path to configuration file (YAML or JSON)")
	tableFile := pflag.String("table-file", "", "Path to the rate table file (.xlsx, .csv, .yaml)")
	tableSheet := pflag.String("table-sheet", "", "Worksheet name for .xlsx tables (default: first sheet)")
	host := pflag.String("host", "localhost", "Host to run the API server on")
	port := pflag.String("port", "8080", "Port to run the API server on")
	metricsPort := pflag.String("metrics-port", "9090", "Port to run the metrics server on")

	readTimeout := pflag.Duration("read-timeout", 15*time.Second, "HTTP server read timeout")
	writeTimeout := pflag.Duration("write-timeout", 15*time.Second, "HTTP server write timeout")
	idleTimeout := pflag.Duration("idle-timeout", 60*time.Second, "HTTP server idle timeout")
	maxRequestSize := pflag.Int64("max-request-size", 10*1024*1024, "Maximum request size in bytes")
	shutdownTimeout := pflag.Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	authEnabled := pflag.Bool("auth-enabled", false, "Enable API key authentication")
	rateLimitEnabled := pflag.Bool("rate-limit-enabled", false, "Enable rate limiting")
	rateLimitStrategy := pflag.String("rate-limit-strategy", constants.RateLimitStrategyIP, "Rate limiting strategy: ip, api_key")
	rateLimitRPS := pflag.Int("rate-limit-rps", 100, "Global rate limit requests per second")
	generateKey := pflag.String("generate-key", "", "Generate a new API key with given name")

	hotReload := pflag.Bool("hot-reload", true, "Enable hot reload for the rate table file")
	hotReloadDebounce := pflag.Duration("hot-reload-debounce", 500*time.Millisecond, "Debounce time for hot reload events")

	tlsEnabled := pflag.Bool("tls-enabled", false, "Enable TLS")
	tlsCertFile := pflag.String("tls-cert-file", "", "TLS certificate file")
	tlsKeyFile := pflag.String("tls-key-file", "", "TLS key file")

	logLevel := pflag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := pflag.String("log-format", "json", "Log format: json, console")

	pflag.Parse()

	cliFlags := &config.CLIFlags{
		Host:              host,
		Port:              port,
		MetricsPort:       metricsPort,
		TableFile:         tableFile,
		TableSheet:        tableSheet,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxRequestSize:    maxRequestSize,
		ShutdownTimeout:   shutdownTimeout,
		AuthEnabled:       authEnabled,
		RateLimitEnabled:  rateLimitEnabled,
		RateLimitStrategy: rateLimitStrategy,
		RateLimitRPS:      rateLimitRPS,
		HotReload:         hotReload,
		HotReloadDebounce: hotReloadDebounce,
		TLSEnabled:        tlsEnabled,
		TLSCertFile:       tlsCertFile,
		TLSKeyFile:        tlsKeyFile,
		LogLevel:          logLevel,
		LogFormat:         logFormat,
	}

	cfg, err := config.LoadConfig(*configFile, cliFlags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *generateKey != "" {
		authManager := security.NewAuthManager(&cfg.Security.Auth)
		apiKey, err := authManager.GenerateAPIKey(*generateKey)
		if err != nil {
			log.Fatalf("Failed to generate API key: %v", err)
		}

		fmt.Printf("Generated API key for '%s':\n", *generateKey)
		fmt.Printf("Key: %s\n", apiKey.Key)
		fmt.Printf("Created: %s\n", apiKey.CreatedAt.Format(time.RFC3339))
		fmt.Printf("\nAdd this to your security configuration:\n")
		fmt.Printf("keys:\n")
		fmt.Printf("  - key: %s\n", apiKey.Key)
		fmt.Printf("    name: %s\n", apiKey.Name)
		fmt.Printf("    enabled: true\n")
		os.Exit(0)
	}

	if cfg.Table.Path == "" {
		fmt.Fprintf(os.Stderr, "Error: rate table file is required\n\n")
		pflag.Usage()
		os.Exit(1)
	}
	if _, err := os.Stat(cfg.Table.Path); os.IsNotExist(err) {
		log.Fatalf("Rate table file not found: %s", cfg.Table.Path)
	}

	apiServer, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	var hotReloadManager *hotreload.Manager
	if cfg.HotReload.Enabled {
		hotReloadManager, err = hotreload.NewManager()
		if err != nil {
			log.Fatalf("Failed to create hot reload manager: %v", err)
		}

		hotReloadManager.SetDebounceTime(cfg.HotReload.Debounce)

		if err := hotReloadManager.AddWatch(cfg.Table.Path); err != nil {
			log.Fatalf("Failed to watch rate table file: %v", err)
		}

		if err := hotReloadManager.RegisterReloadable(apiServer); err != nil {
			log.Fatalf("Failed to register server for hot reload: %v", err)
		}

		if err := hotReloadManager.Start(); err != nil {
			log.Fatalf("Failed to start hot reload: %v", err)
		}

		log.Printf("Hot reload enabled for %s", cfg.Table.Path)
	}

	log.Printf("Starting Payin Calculator API for %s on %s", cfg.Table.Path, cfg.GetServerAddress())
	if cfg.Security.Auth.Enabled {
		log.Printf("API key authentication enabled")
	}
	if cfg.Security.RateLimit.Enabled {
		log.Printf("Rate limiting enabled (strategy: %s, rps: %d)",
			cfg.Security.RateLimit.Strategy,
			cfg.Security.RateLimit.Global.RequestsPerSecond)
	}

	if err := apiServer.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	if hotReloadManager != nil {
		if err := hotReloadManager.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shutdown hot reload manager: %v", err)
		}
	}
}
