// Package main provides the tasks command-line tool: it re-derives <slug>-v2.json
// from an exported <slug>.json.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"coursexport/internal/exporter"
	"coursexport/internal/models"
	"coursexport/internal/normalizer"
	"coursexport/internal/storage"
)

func main() {
	inputPath := flag.String("input", "", "Path to an exported <slug>.json")
	outputPath := flag.String("output", "", "Path to the task list JSON (default: <slug>-v2.json next to input)")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: tasks -input <slug>.json [-output <slug>-v2.json]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	content, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("❌ Error reading file: %v\n", err)
	}

	fmt.Printf("📂 Reading: %s (%d bytes)\n", *inputPath, len(content))

	var payload models.ExportPayload
	if err := json.Unmarshal(content, &payload); err != nil {
		log.Fatalf("❌ Error parsing payload: %v\n", err)
	}

	tasks, err := normalizer.NewProcessor().Process(&payload)
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	fmt.Printf("📊 Derived %d tasks from %d lessons\n", len(tasks.Tasks), len(payload.Lessons))

	dir, name := filepath.Split(*outputPath)
	if *outputPath == "" {
		slug := strings.TrimSuffix(filepath.Base(*inputPath), filepath.Ext(*inputPath))
		dir, name = filepath.Dir(*inputPath), exporter.TasksFilename(slug)
	}

	if dir == "" {
		dir = "."
	}

	writer := storage.NewFolderWriter(storage.StaticRoot(dir), false, nil)
	if err := writer.Prepare(context.Background()); err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	if err := writer.WriteJSON(context.Background(), name, tasks); err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	fmt.Printf("✅ Saved to: %s\n", filepath.Join(dir, name))
}
