// Package main provides the exporter command-line tool: it opens each course page,
// requests its data and saves <slug>.json and <slug>-v2.json.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"coursexport/internal/browser"
	"coursexport/internal/config"
	"coursexport/internal/crawler"
	"coursexport/internal/exporter"
	"coursexport/internal/formatter"
	"coursexport/internal/logger"
	"coursexport/internal/normalizer"
	"coursexport/internal/orchestrator"
	"coursexport/internal/storage"
)

const defaultConfig = "configs/exporter.yaml"

func main() {
	// Define command-line flags
	configFile := flag.String("config", "", "Path to YAML configuration file")
	targetURL := flag.String("url", "", "Course page URL to export (overrides config sources)")
	localFile := flag.String("file", "", "Local HTML snapshot of -url to read instead of fetching")
	out := flag.String("out", "", "Output folder, downloads folder or remote dir, depending on -mode")
	mode := flag.String("mode", "", "Output mode: folder, download or sftp (overrides config)")
	level := flag.String("level", "", "Log level: debug, info, warn, error (overrides config)")
	showSummary := flag.Bool("summary", false, "Print a lesson table after each export")
	noInject := flag.Bool("no-inject", false, "Recover a missing listener by reloading instead of injecting")
	showUsage := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *showUsage {
		printUsage()
		os.Exit(0)
	}

	cfg := loadConfig(*configFile, *targetURL)
	applyOverrides(cfg, *targetURL, *localFile, *out, *mode, *level)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v\n", err)
	}

	sources := cfg.GetEnabledSources()
	if len(sources) == 0 {
		log.Fatal("❌ No enabled sources; pass -url or list sources in the config")
	}

	appLog := logger.NewLoggerWithWriter(cfg.Exporter.Logging.Level, cfg.Exporter.Logging.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, err := storage.NewFromConfig(cfg, nil, appLog)
	if err != nil {
		log.Fatalf("❌ Failed to create writer: %v\n", err)
	}

	orch := orchestrator.New(orchestrator.Options{
		ReloadTimeout:    cfg.Exporter.Recovery.GetReloadTimeout(),
		DisableInjection: *noInject || !cfg.Exporter.Recovery.EnableInjection,
		OnTransition: func(from, to orchestrator.State) {
			if to == orchestrator.RecoveringViaInjection || to == orchestrator.RecoveringViaReload {
				fmt.Printf("🔧 No listener in page, %s\n", to)
			}
		},
	}, appLog)

	exp := exporter.New(orch, writer, exporter.ReporterFunc(printStatus), appLog)
	attempts := crawler.NewAttemptLog()
	scraper := crawler.NewScraperWithConfig(&cfg.Exporter.Retry, cfg.Advanced.BufferSizeKb, appLog).WithAttemptLog(attempts)
	transformer := normalizer.NewTransformer()

	printHeader(cfg)

	failed := 0

	for i, src := range sources {
		fmt.Printf("\n----------------------------------------------------------------\n")
		fmt.Printf("📦 Source %d/%d: %s\n", i+1, len(sources), sourceLabel(src))

		var loader crawler.Loader = scraper
		if src.IsLocalFile() {
			loader = crawler.FileLoader{Path: src.File}
		}

		tab := browser.NewTab(src.URL, loader, browser.OptionsFromConfig(cfg, appLog))

		fmt.Printf("⏳ Loading %s\n", src.URL)

		if err := tab.Navigate(ctx); err != nil {
			fmt.Printf("❌ Load failed: %v\n", err)

			failed++

			continue
		}

		result, err := exp.Export(ctx, tab)
		if err != nil {
			failed++

			continue
		}

		if result.Cancelled {
			fmt.Println("🚫 Export cancelled, nothing saved")

			continue
		}

		for _, name := range result.Files {
			fmt.Printf("✅ Saved %s\n", name)
		}

		if *showSummary {
			fmt.Println()
			fmt.Print(formatter.Summary(transformer.Summarize(result.Payload), result.Payload))
		}

		if errors.Is(ctx.Err(), context.Canceled) {
			break
		}
	}

	if attempts.Stats().TotalURLs > 0 {
		attempts.LogSummary(appLog)
	}

	if failed > 0 {
		fmt.Printf("\n⚠️  %d of %d exports failed\n", failed, len(sources))
		os.Exit(1)
	}

	fmt.Println("\n✨ Export complete!")
}

func loadConfig(path, targetURL string) *config.Config {
	if path == "" && targetURL == "" {
		if _, err := os.Stat(defaultConfig); err == nil {
			path = defaultConfig
		}
	}

	if path == "" {
		return config.Default()
	}

	fmt.Printf("⚙️  Loading configuration from: %s\n", path)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v\n", err)
	}

	fmt.Printf("✅ Configuration loaded: %s\n", cfg)

	return cfg
}

func applyOverrides(cfg *config.Config, targetURL, localFile, out, mode, level string) {
	if targetURL != "" {
		cfg.Exporter.Sources = []config.SourceConfig{{
			Name:    "CLI Argument",
			URL:     targetURL,
			File:    localFile,
			Enabled: true,
		}}
	}

	if mode != "" {
		cfg.Exporter.Output.Mode = mode
	}

	if level != "" {
		cfg.Exporter.Logging.Level = level
	}

	if out != "" {
		switch cfg.Exporter.Output.Mode {
		case config.ModeDownload:
			cfg.Exporter.Output.DownloadsDir = out
		case config.ModeSFTP:
			cfg.Exporter.SFTP.RemoteDir = out
		default:
			cfg.Exporter.Output.BasePath = out
		}
	}
}

func printStatus(status exporter.Status, detail string) {
	switch status {
	case exporter.StatusExtracting:
		fmt.Println("📊 Extracting course data...")
	case exporter.StatusSaving:
		fmt.Println("📝 Saving files...")
	case exporter.StatusSaved:
		fmt.Printf("✅ Saved: %s\n", detail)
	case exporter.StatusFailed:
		fmt.Printf("❌ %s\n", detail)
	case exporter.StatusCancelled:
	}
}

func sourceLabel(src config.SourceConfig) string {
	if src.Name == "" {
		return src.URL
	}

	return src.Name
}

func printHeader(cfg *config.Config) {
	fmt.Println("🎓 Course Exporter")
	fmt.Printf("Sources: %d enabled\n", len(cfg.GetEnabledSources()))
	fmt.Printf("Output: %s\n", cfg.Exporter.Output.Mode)
	fmt.Printf("Recovery: injection=%t, reload timeout %s\n",
		cfg.Exporter.Recovery.EnableInjection,
		cfg.Exporter.Recovery.GetReloadTimeout())
}

func printUsage() {
	fmt.Println("Usage: ./bin/exporter [OPTIONS]")
	fmt.Println()
	fmt.Println("Modes:")
	fmt.Println("  1. Config-based:   ./bin/exporter -config configs/exporter.yaml")
	fmt.Println("  2. Default config: ./bin/exporter (reads configs/exporter.yaml if exists)")
	fmt.Println("  3. Single page:    ./bin/exporter -url <URL> [-out <DIR>]")
	fmt.Println("  4. Saved page:     ./bin/exporter -url <URL> -file <PAGE.html>")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ./bin/exporter -url https://example.com/courses/123-intro/ -out ./exports -summary")
	fmt.Println("  ./bin/exporter -url https://example.com/courses/123-intro/ -file page.html -mode download")
}
