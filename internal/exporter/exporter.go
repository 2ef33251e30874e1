// Package exporter runs one course export: request the payload from a page,
// derive the task list and persist both artifacts.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"coursexport/internal/logger"
	"coursexport/internal/models"
	"coursexport/internal/normalizer"
	"coursexport/internal/orchestrator"
	"coursexport/internal/protocol"
	"coursexport/internal/storage"
	"coursexport/pkg/utils"
)

const logTitleLength = 60

// ErrExportInProgress is returned when Export is called while another export runs.
var ErrExportInProgress = errors.New("an export is already in progress")

// Status is a user-facing progress message.
type Status string

// Statuses reported during an export.
const (
	StatusExtracting Status = "Extracting course data..."
	StatusSaving     Status = "Saving files..."
	StatusSaved      Status = "Saved"
	StatusCancelled  Status = "Cancelled"
	StatusFailed     Status = "Failed"
)

// Reporter shows export progress to the user.
type Reporter interface {
	Report(status Status, detail string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(status Status, detail string)

// Report implements Reporter.
func (f ReporterFunc) Report(status Status, detail string) {
	f(status, detail)
}

// Requester obtains the extraction result from a target.
type Requester interface {
	Request(ctx context.Context, target orchestrator.Target) (*protocol.ExtractResult, error)
}

// Result describes a finished export.
type Result struct {
	InvocationID string
	Slug         string
	Files        []string
	Payload      *models.ExportPayload
	Tasks        *models.TaskListPayload
	Cancelled    bool
	Duration     time.Duration
}

// PayloadFilename is the name of the first artifact.
func PayloadFilename(slug string) string {
	return slug + ".json"
}

// TasksFilename is the name of the second artifact.
func TasksFilename(slug string) string {
	return slug + "-v2.json"
}

// Exporter runs one export at a time.
type Exporter struct {
	requester Requester
	processor *normalizer.Processor
	writer    storage.Writer
	reporter  Reporter
	log       *logger.Logger

	busy atomic.Bool
}

// New creates an exporter. A nil reporter discards statuses.
func New(requester Requester, writer storage.Writer, reporter Reporter, log *logger.Logger) *Exporter {
	if reporter == nil {
		reporter = ReporterFunc(func(Status, string) {})
	}

	return &Exporter{
		requester: requester,
		processor: normalizer.NewProcessor(),
		writer:    writer,
		reporter:  reporter,
		log:       logger.OrDiscard(log),
	}
}

// Export extracts the course from target and writes <slug>.json then <slug>-v2.json.
// An abandoned save-location choice returns a Result with Cancelled set and a nil
// error.
func (e *Exporter) Export(ctx context.Context, target orchestrator.Target) (*Result, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	defer e.busy.Store(false)

	start := time.Now()
	result := &Result{InvocationID: uuid.NewString()}
	log := e.log.With("invocation", result.InvocationID)

	err := e.run(ctx, target, result, log)
	result.Duration = time.Since(start)

	switch {
	case errors.Is(err, storage.ErrUserCancelled):
		result.Cancelled = true
		e.reporter.Report(StatusCancelled, "")
		log.Info("export cancelled")

		return result, nil
	case err != nil:
		e.reporter.Report(StatusFailed, err.Error())
		log.Error("export failed", "error", err)

		return result, err
	}

	e.reporter.Report(StatusSaved, fmt.Sprintf("%s (%d lessons)", result.Slug, len(result.Payload.Lessons)))
	log.Info("export finished",
		"slug", result.Slug,
		"title", utils.NewStringHelper().TruncateString(result.Payload.CourseData.Title, logTitleLength),
		"lessons", len(result.Payload.Lessons), "duration", result.Duration)

	return result, nil
}

func (e *Exporter) run(ctx context.Context, target orchestrator.Target, result *Result, log *logger.Logger) error {
	// The save location is chosen before the page is touched.
	if p, ok := e.writer.(storage.Preparer); ok {
		if err := p.Prepare(ctx); err != nil {
			return err
		}
	}

	e.reporter.Report(StatusExtracting, "")

	extracted, err := e.requester.Request(ctx, target)
	if err != nil {
		return err
	}

	result.Slug = extracted.Slug
	result.Payload = &extracted.Payload

	tasks, err := e.processor.Process(result.Payload)
	if err != nil {
		return err
	}

	result.Tasks = tasks

	e.reporter.Report(StatusSaving, "")
	log.Debug("writing artifacts", "slug", result.Slug)

	artifacts := []struct {
		name  string
		value any
	}{
		{PayloadFilename(result.Slug), result.Payload},
		{TasksFilename(result.Slug), tasks},
	}

	for _, a := range artifacts {
		if err := e.writer.WriteJSON(ctx, a.name, a.value); err != nil {
			var perr *storage.PersistenceError
			if !errors.As(err, &perr) {
				err = &storage.PersistenceError{Filename: a.name, Err: err}
			}

			return err
		}

		result.Files = append(result.Files, a.name)
	}

	return nil
}
