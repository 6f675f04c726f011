package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/densky-dev/densky/internal/config"
	"github.com/densky-dev/densky/internal/errors"
	"github.com/densky-dev/densky/internal/output"
	"github.com/densky-dev/densky/internal/telemetry"
	"github.com/densky-dev/densky/pkg/parser"
	"github.com/densky-dev/densky/pkg/router"
)

// ManifestFile is the key of the build manifest below the output root.
const ManifestFile = "manifest.json"

// Build statuses, as reported to metrics.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailure = "failure"
)

// Result contains the build output.
type Result struct {
	// BuildID identifies the build in logs and the manifest.
	BuildID string

	// CacheHash is the import cache-busting value the artifacts use.
	CacheHash string

	// Duration is how long the build took.
	Duration time.Duration

	Tree      *router.Tree
	Entries   []router.Entry
	Artifacts []router.Artifact

	// Written maps artifact keys to where the sink put them.
	Written map[string]string

	// Warnings are soft problems: duplicate routes, ignored files.
	Warnings []*errors.DenskyError

	// Errors are nodes that failed to generate. Their siblings were
	// still written.
	Errors []*errors.DenskyError

	Manifest *Manifest
}

// Status summarises the result.
func (r *Result) Status() string {
	if len(r.Errors) > 0 {
		return StatusPartial
	}
	return StatusSuccess
}

// Options configures the builder.
type Options struct {
	// Sink receives the artifacts. Defaults to output.New(cfg).
	Sink output.Sink

	// CacheHash for the generated imports. Empty picks a fresh one.
	CacheHash string

	// Clean removes the previous dispatchers before writing. Defaults to
	// the config's output.clean.
	Clean bool

	Logger  *slog.Logger
	Metrics *telemetry.Metrics

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Builder runs the pipeline: discover, validate, generate, write.
type Builder struct {
	config  *config.Config
	options Options
	logger  *slog.Logger
}

// New creates a new builder.
func New(cfg *config.Config, options Options) *Builder {
	if options.Sink == nil {
		options.Sink = output.New(cfg)
	}
	if !options.Clean && cfg.Output.Clean {
		options.Clean = true
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		config:  cfg,
		options: options,
		logger:  logger.With("component", "build"),
	}
}

// Config returns the project configuration the builder runs with.
func (b *Builder) Config() *config.Config {
	return b.config
}

// Build runs one full build. The returned error is fatal: nothing or only
// part of the output was written. Failing nodes are not fatal; they are
// reported in Result.Errors.
func (b *Builder) Build(ctx context.Context) (result *Result, err error) {
	start := time.Now()
	result = &Result{
		BuildID:   uuid.NewString(),
		CacheHash: b.options.CacheHash,
		Written:   make(map[string]string),
	}
	if result.CacheHash == "" {
		result.CacheHash = router.NewCacheHash()
	}

	ctx, span := telemetry.StartPhase(ctx, "build",
		attribute.String("densky.build_id", result.BuildID),
		attribute.String("densky.routes_dir", b.config.RoutesPath()),
	)
	defer func() {
		telemetry.EndSpan(span, err)
		result.Duration = time.Since(start)
		status := result.Status()
		if err != nil {
			status = StatusFailure
		}
		b.options.Metrics.ObserveBuild(status, result.Duration)
	}()

	logger := b.logger.With("build_id", result.BuildID)

	b.progress("Discovering routes...")
	if err := b.phase(ctx, "discover", func(ctx context.Context) error {
		tree, entries, err := router.Discover(ctx, router.ScanOptions{
			RoutesDir: b.config.RoutesPath(),
			OutputDir: b.config.HTTPOutputPath(),
			Extension: b.config.Routes.Extension,
			Pattern:   b.config.Routes.Pattern,
		}, logger)
		if err != nil {
			return err
		}
		result.Tree, result.Entries = tree, entries
		return nil
	}); err != nil {
		return result, errors.Classify(err)
	}

	b.progress("Validating routes...")
	_ = b.phase(ctx, "validate", func(context.Context) error {
		result.Warnings = append(result.Warnings, b.validate(result, logger)...)
		return nil
	})
	b.options.Metrics.SetTree(len(result.Entries), len(result.Tree.Nodes()))

	b.progress("Generating dispatchers...")
	if err := b.phase(ctx, "generate", func(context.Context) error {
		gen := router.NewGenerator(result.Tree, router.GeneratorOptions{
			RuntimeImport: b.config.Runtime,
			CacheHash:     result.CacheHash,
			Extractor:     parser.NewExtractor(b.config.Dir()),
			Logger:        logger,
		})
		artifacts, genErr := gen.GenerateAll()
		result.Artifacts = artifacts
		for _, e := range splitErrors(genErr) {
			de := errors.Classify(e)
			if de.Fatal() {
				return de
			}
			b.options.Metrics.NodeError(de.Code)
			logger.Error("node failed to generate", "error", e)
			result.Errors = append(result.Errors, de)
		}
		return nil
	}); err != nil {
		return result, err
	}

	b.progress("Writing artifacts...")
	if err := b.phase(ctx, "write", func(ctx context.Context) error {
		return b.write(ctx, result)
	}); err != nil {
		return result, errors.FromError(err, "E140")
	}

	logger.Info("build finished",
		"routes", len(result.Entries),
		"artifacts", len(result.Artifacts),
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"duration", time.Since(start),
	)
	return result, nil
}

func (b *Builder) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := telemetry.StartPhase(ctx, name)
	err := fn(ctx)
	telemetry.EndSpan(span, err)
	b.options.Metrics.ObservePhase(name, time.Since(start))
	return err
}

func (b *Builder) validate(result *Result, logger *slog.Logger) []*errors.DenskyError {
	var warnings []*errors.DenskyError

	err := router.NewValidator(result.Entries).Validate()
	var multi *router.MultiValidationError
	if stderrors.As(err, &multi) {
		for _, ve := range multi.Errors {
			logger.Warn("route conflict", "path", ve.Path, "files", ve.Files)
			warnings = append(warnings, errors.FromValidationError(ve))
		}
		b.options.Metrics.SetDuplicates(len(multi.Errors))
	} else {
		b.options.Metrics.SetDuplicates(0)
	}

	for _, id := range result.Tree.Ignored() {
		leaf := result.Tree.Leaf(id)
		logger.Debug("ignored route file", "file", leaf.FilePath)
	}
	for _, id := range result.Tree.Shadowed() {
		leaf := result.Tree.Leaf(id)
		logger.Debug("shadowed route file", "file", leaf.FilePath, "path", leaf.Path)
	}
	return warnings
}

func (b *Builder) write(ctx context.Context, result *Result) error {
	sink := b.options.Sink
	root := b.config.OutputPath()

	if b.options.Clean {
		if err := sink.Clean(ctx, b.config.Output.HTTPDir); err != nil {
			return err
		}
	}

	for _, artifact := range result.Artifacts {
		key, err := artifactKey(root, artifact.OutputPath)
		if err != nil {
			return err
		}
		if err := sink.Write(ctx, key, []byte(artifact.Content)); err != nil {
			return err
		}
		result.Written[key] = sink.Location(key)
	}
	b.options.Metrics.AddArtifacts(len(result.Artifacts))

	result.Manifest = newManifest(result, root)
	data, err := json.MarshalIndent(result.Manifest, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := sink.Write(ctx, ManifestFile, data); err != nil {
		return err
	}
	result.Written[ManifestFile] = sink.Location(ManifestFile)
	return nil
}

func artifactKey(root, outputPath string) (string, error) {
	rel, err := filepath.Rel(root, filepath.FromSlash(outputPath))
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

// splitErrors undoes errors.Join.
func splitErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
