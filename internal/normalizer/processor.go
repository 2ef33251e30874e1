// Package normalizer checks export payloads and derives the task-list artifact from them.
package normalizer

import (
	"fmt"

	"coursexport/internal/models"
)

// Processor validates a payload and derives its task list.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
	}
}

// Process returns the task list for payload.
func (p *Processor) Process(payload *models.ExportPayload) (*models.TaskListPayload, error) {
	// 1. Validate the payload
	if err := p.validator.Validate(payload); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// 2. Derive the task list
	tasks, err := p.transformer.Transform(payload)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	return tasks, nil
}
