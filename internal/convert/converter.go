// Package convert orchestrates a conversion: metadata, tree listing,
// classification and artifact synthesis, run as a sequential stage pipeline
// that returns either a complete result or a single classified error.
package convert

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/tailzen/internal/classify"
	"git.home.luguber.info/inful/tailzen/internal/fetcher"
	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/logfields"
	"git.home.luguber.info/inful/tailzen/internal/metrics"
	"git.home.luguber.info/inful/tailzen/internal/source"
	"git.home.luguber.info/inful/tailzen/internal/transform"
)

// DefaultDescription is used when the repository has none.
const DefaultDescription = "Converted WordPress theme"

// Result is a finished theme. The caller owns it exclusively.
type Result struct {
	ConversionID string
	ThemeName    string
	Description  string
	Artifacts    *transform.ArtifactSet
}

// Inventory is the classified file listing of a repository.
type Inventory struct {
	Metadata   source.RepositoryMetadata
	Files      []source.RemoteEntry
	Classified classify.Result
}

// Options configures a Converter.
type Options struct {
	Fetch     fetcher.Options
	Transform transform.Options
	Logger    *slog.Logger
	Recorder  metrics.Recorder
	Observer  Observer
	// NewID generates conversion ids (uuid v4 by default).
	NewID func() string
}

// Converter runs conversions against one content API. It holds no
// per-conversion state and may be shared by concurrent callers. When the API
// is a source.SessionFactory every conversion runs on its own session.
type Converter struct {
	api  source.API
	opts Options
}

// New returns a Converter over api.
func New(api source.API, opts Options) *Converter {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Recorder = metrics.OrNoop(opts.Recorder)
	if opts.Observer == nil {
		opts.Observer = NoopObserver{}
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Converter{api: api, opts: opts}
}

// run is the state of one conversion.
type run struct {
	id       string
	ref      source.RepositoryRef
	logger   *slog.Logger
	machine  *machine
	fetcher  *fetcher.Fetcher
	session  source.Session
	observer Observer
	recorder metrics.Recorder

	meta       source.RepositoryMetadata
	files      []source.RemoteEntry
	classified classify.Result
	artifacts  *transform.ArtifactSet
}

func (c *Converter) newRun(ref source.RepositoryRef) *run {
	id := c.opts.NewID()
	logger := c.opts.Logger.With(logfields.ConversionID(id), logfields.Repository(ref.String()))

	fetchOpts := c.opts.Fetch
	fetchOpts.Logger = logger
	fetchOpts.Recorder = c.opts.Recorder

	r := &run{
		id:       id,
		ref:      ref,
		logger:   logger,
		machine:  newMachine(),
		observer: c.opts.Observer,
		recorder: c.opts.Recorder,
	}
	api := c.api
	if factory, ok := c.api.(source.SessionFactory); ok {
		r.session = factory.NewSession()
		api = r.session
	}
	r.fetcher = fetcher.New(api, fetchOpts)
	return r
}

// close ends the run's source session, if any.
func (r *run) close() {
	if r.session == nil {
		return
	}
	if err := r.session.Close(); err != nil {
		r.logger.Warn("Failed to close source session", logfields.Error(err))
	}
}

// Convert runs the full pipeline for ref. Exactly one of the result or the
// error is meaningful: on failure the zero Result is returned together with
// an InvalidReference, RateLimited, FetchExhausted or Cancelled error.
func (c *Converter) Convert(ctx context.Context, ref source.RepositoryRef) (Result, error) {
	start := time.Now()
	r := c.newRun(ref)
	defer r.close()

	transformOpts := c.opts.Transform
	transformOpts.Logger = r.logger
	transformOpts.Recorder = c.opts.Recorder
	transformer := transform.New(r.fetcher, transformOpts)

	stages := append(r.discoveryStages(), stage{StateTransforming, func(ctx context.Context) error {
		set, err := transformer.BuildArtifacts(ctx, r.meta, r.classified)
		if err != nil {
			return err
		}
		r.artifacts = set
		return nil
	}})

	err := r.execute(ctx, stages)
	c.opts.Recorder.ObserveConversionDuration(time.Since(start))
	c.opts.Recorder.IncConversionOutcome(outcomeFor(err))
	if err != nil {
		r.logger.ErrorContext(ctx, "Conversion failed",
			logfields.Category(string(derrors.GetCategory(err))),
			logfields.Error(err))
		return Result{}, err
	}

	description := r.meta.Description
	if description == "" {
		description = DefaultDescription
	}
	c.opts.Recorder.ObserveArtifacts(r.artifacts.Len())
	r.logger.InfoContext(ctx, "Conversion completed",
		logfields.Count(r.artifacts.Len()),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return Result{
		ConversionID: r.id,
		ThemeName:    transform.ThemeName(r.meta.Name),
		Description:  description,
		Artifacts:    r.artifacts,
	}, nil
}

// Inventory runs metadata, listing and classification without fetching any
// file content.
func (c *Converter) Inventory(ctx context.Context, ref source.RepositoryRef) (Inventory, error) {
	r := c.newRun(ref)
	defer r.close()
	if err := r.execute(ctx, r.discoveryStages()); err != nil {
		return Inventory{}, err
	}
	return Inventory{Metadata: r.meta, Files: r.files, Classified: r.classified}, nil
}

func (r *run) discoveryStages() []stage {
	return []stage{
		{StateFetchingMetadata, func(ctx context.Context) error {
			meta, err := r.fetcher.ResolveMetadata(ctx, r.ref)
			if err != nil {
				return err
			}
			if meta.Name == "" {
				meta.Name = r.ref.Name
			}
			r.meta = meta
			return nil
		}},
		{StateListingTree, func(ctx context.Context) error {
			files, err := r.fetcher.ListAllFiles(ctx, r.ref)
			if err != nil {
				return err
			}
			r.files = files
			return nil
		}},
		{StateClassifying, func(context.Context) error {
			r.classified = classify.Classify(r.files)
			counts := r.classified.Counts()
			r.logger.Debug("Classified files",
				slog.Int("styles", counts[classify.Styles]),
				slog.Int("markup", counts[classify.Markup]),
				slog.Int("scripts", counts[classify.Scripts]),
				slog.Int("images", counts[classify.Images]))
			return nil
		}},
	}
}

func outcomeFor(err error) metrics.OutcomeLabel {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case derrors.IsCancelled(err):
		return metrics.OutcomeCanceled
	case derrors.IsRateLimited(err):
		return metrics.OutcomeRateLimited
	case derrors.IsInvalidReference(err):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeFailed
	}
}
