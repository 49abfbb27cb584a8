// Package framework prepares the output directory before a build and
// reports progress and timing.
package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/engine"
	"github.com/rdfpub/generator/internal/resource"
)

// ErrOutputNotEmpty is returned by Init when the output directory has
// content and cleaning is disabled.
var ErrOutputNotEmpty = errors.New("output directory is not empty")

// ErrOutputContainsInput is returned by Init when cleaning the output
// directory would delete the input directory.
var ErrOutputContainsInput = errors.New("output directory contains the input directory")

// Builder is the framework concern.
type Builder struct {
	engine.NopBuilder

	settings *config.Settings
	logger   *slog.Logger
	start    time.Time

	resources int
	files     int
}

// New creates the framework builder.
func New(s *config.Settings, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{settings: s, logger: logger, start: time.Now()}
}

// Name implements engine.Builder.
func (b *Builder) Name() string { return "framework" }

// Init empties or validates the output directory and creates it.
func (b *Builder) Init(context.Context) error {
	b.start = time.Now()
	out := b.settings.OutputDir()

	b.logger.Info("beginning build")
	b.logger.Info("input directory", "path", b.settings.InputDir())
	b.logger.Info("output directory", "path", out)
	b.logger.Info("base URI", "uri", b.settings.BaseURI())

	if b.settings.CleanOutputDirectory() {
		contains, err := containsDir(out, b.settings.InputDir())
		if err != nil {
			return fmt.Errorf("error while checking output directory: %w", err)
		}
		if contains {
			return fmt.Errorf("%w: refusing to delete %s", ErrOutputContainsInput, out)
		}
		b.logger.Info("output directory will be deleted and recreated")
		if err := os.RemoveAll(out); err != nil {
			return fmt.Errorf("error while deleting output directory: %w", err)
		}
	} else {
		b.logger.Info("checking that output directory is empty")
		empty, err := isEmptyDir(out)
		if err != nil {
			return fmt.Errorf("error while checking output directory: %w", err)
		}
		if !empty {
			return fmt.Errorf("%w: %s", ErrOutputNotEmpty, out)
		}
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("error while creating output directory: %w", err)
	}
	return nil
}

func (b *Builder) HandleNewResource(_ context.Context, r *resource.Resource) error {
	b.resources++
	b.logger.Debug("entering resource directory", "path", r.ResourcePath())
	return nil
}

func (b *Builder) HandleResourceFile(_ context.Context, _ *resource.Resource, f *resource.File) error {
	b.files++
	b.logger.Debug("scanning resource file", "file", f.Path())
	return nil
}

func (b *Builder) HandleFinishedResource(_ context.Context, r *resource.Resource) error {
	b.logger.Debug("finishing scan of resource directory", "path", r.ResourcePath())
	return nil
}

// Complete logs what the walk saw.
func (b *Builder) Complete(context.Context) error {
	b.logger.Info("scanned input", "resources", b.resources, "files", b.files)
	return nil
}

// Always logs the elapsed time since Init.
func (b *Builder) Always(context.Context) {
	b.logger.Info("build completed", "elapsed", time.Since(b.start).Round(time.Millisecond).String())
}

// containsDir reports whether dir is parent or one of its descendants.
func containsDir(parent, dir string) (bool, error) {
	absParent, err := filepath.Abs(parent)
	if err != nil {
		return false, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absParent, absDir)
	if err != nil {
		return false, nil
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}

// isEmptyDir reports whether dir has no entries. A missing dir is empty.
func isEmptyDir(dir string) (bool, error) {
	f, err := os.Open(dir)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s is not a directory", dir)
	}

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}
