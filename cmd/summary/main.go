// Package main provides the summary command-line tool: it prints the lesson table
// of an exported <slug>.json.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"coursexport/internal/formatter"
	"coursexport/internal/models"
	"coursexport/internal/normalizer"
)

func main() {
	inputPath := flag.String("input", "", "Path to an exported <slug>.json")
	check := flag.Bool("check", false, "Validate the payload before printing")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: summary -input <slug>.json [-check]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	content, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("❌ Error reading file: %v\n", err)
	}

	var payload models.ExportPayload
	if err := json.Unmarshal(content, &payload); err != nil {
		log.Fatalf("❌ Error parsing payload: %v\n", err)
	}

	if *check {
		if err := normalizer.NewValidator().Validate(&payload); err != nil {
			log.Fatalf("❌ Invalid payload: %v\n", err)
		}

		fmt.Println("✅ Payload is consistent")
		fmt.Println()
	}

	fmt.Print(formatter.Summary(normalizer.NewTransformer().Summarize(&payload), &payload))
}
