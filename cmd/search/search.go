// Package search implements the interactive search command: resolve the
// query to one book, fan out across the configured sources, and render
// the aggregated report.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bookhunt/internal/cmdutil"
	"bookhunt/internal/config"
	bherrors "bookhunt/internal/errors"
	"bookhunt/internal/fileutil"
	"bookhunt/internal/orchestrator"
	"bookhunt/internal/tui"
)

// Options holds the search command parameters.
type Options struct {
	Query string
	// Source restricts the fan-out to one configured source by name.
	Source string
	// NoInteractive auto-selects the first candidate instead of showing
	// the selection UI.
	NoInteractive bool
	// Save writes the text report under the configured output directory.
	Save bool
	// JSON / YAML additionally write the structured report.
	JSON bool
	YAML bool
}

var runSearch = func(o *orchestrator.Orchestrator, ctx context.Context, query string) (*orchestrator.Report, error) {
	return o.Search(ctx, query)
}

// Run executes one search end to end.
func Run(ctx context.Context, opts Options) error {
	var selector orchestrator.SelectFunc
	if !opts.NoInteractive {
		selector = tuiSelector
	}

	orch, registry, err := cmdutil.BuildOrchestratorFor(selector, opts.Source)
	if err != nil {
		return err
	}
	if registry.Len() == 0 {
		slog.Warn("No sources configured; the report will be empty")
	}

	report, err := runSearch(orch, ctx, opts.Query)
	if err != nil {
		if bherrors.IsSelectionCancelled(err) {
			slog.Info("Selection cancelled")
			return nil
		}
		if errors.Is(err, orchestrator.ErrNoCandidates) {
			fmt.Printf("No matching book found for %q\n", opts.Query)
			return nil
		}
		return err
	}

	text := RenderText(report, registry)
	fmt.Print(text)

	if opts.Save {
		path := fileutil.GetReportFilePath(reportBaseName(report), config.OutputDir(), ".md")
		written, err := fileutil.WriteFileWithOverwrite(path, []byte(text), 0o644, config.OverwriteFiles)
		if err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		if written {
			slog.Info("Saved report", "path", path)
		} else {
			slog.Info("Report exists, skipping (use --overwrite)", "path", path)
		}
	}

	if opts.JSON {
		path := fileutil.GetReportFilePath(reportBaseName(report), config.OutputDir(), ".json")
		if _, err := fileutil.WriteJSONFile(report, path, config.OverwriteFiles); err != nil {
			return fmt.Errorf("failed to write JSON report: %w", err)
		}
	}

	if opts.YAML {
		data, err := RenderYAML(report)
		if err != nil {
			return fmt.Errorf("failed to render YAML report: %w", err)
		}
		path := fileutil.GetReportFilePath(reportBaseName(report), config.OutputDir(), ".yaml")
		if _, err := fileutil.WriteFileWithOverwrite(path, data, 0o644, config.OverwriteFiles); err != nil {
			return fmt.Errorf("failed to write YAML report: %w", err)
		}
	}

	if config.DownloadCovers && report.Candidate != nil && report.Candidate.CoverURL != "" {
		result, err := fileutil.DownloadCover(fileutil.CoverDownloadOptions{
			URL:       report.Candidate.CoverURL,
			OutputDir: config.OutputDir(),
			Filename:  fileutil.BuildCoverFilename(report.Candidate.Title),
			Overwrite: config.OverwriteFiles,
		})
		if err != nil {
			// The report is already on screen; a cover failure is cosmetic.
			slog.Warn("Failed to download cover", "error", err)
		} else if result != nil && result.Downloaded {
			slog.Info("Saved cover", "path", result.LocalPath)
		}
	}

	return nil
}

// tuiSelector bridges the selection UI onto the orchestrator's selector
// contract.
func tuiSelector(query string, candidates []orchestrator.Candidate) (int, error) {
	result, err := tui.Select(query, candidates)
	if err != nil {
		return 0, err
	}
	return selectionToIndex(result)
}

// selectionToIndex maps a UI outcome to the selector contract. Skip and
// stop both cancel the search.
func selectionToIndex(result tui.SelectionResult) (int, error) {
	switch result.Action {
	case tui.ActionSelected:
		return result.Index, nil
	case tui.ActionSkipped:
		return 0, bherrors.NewSelectionCancelledError("selection skipped")
	default:
		return 0, bherrors.NewSelectionCancelledError("search stopped")
	}
}
