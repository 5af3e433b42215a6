package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/contentsync/internal/artifact"
	"git.home.luguber.info/inful/contentsync/internal/buildlog"
	"git.home.luguber.info/inful/contentsync/internal/config"
	"git.home.luguber.info/inful/contentsync/internal/gitsource"
	"git.home.luguber.info/inful/contentsync/internal/logfields"
	"git.home.luguber.info/inful/contentsync/internal/manifest"
	"git.home.luguber.info/inful/contentsync/internal/metrics"
	"git.home.luguber.info/inful/contentsync/internal/newsindex"
	"git.home.luguber.info/inful/contentsync/internal/notify"
	"git.home.luguber.info/inful/contentsync/internal/resolver"
	"git.home.luguber.info/inful/contentsync/internal/server"
	"git.home.luguber.info/inful/contentsync/internal/synth"
	"git.home.luguber.info/inful/contentsync/internal/version"
	"git.home.luguber.info/inful/contentsync/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Override artifact output directory"`
	} `cmd:"" help:"Synthesize all content artifacts once and exit"`

	Watch struct {
		Serve bool   `help:"Also serve artifacts while watching"`
		Addr  string `help:"Preview server listen address" default:":8080"`
	} `cmd:"" help:"Rebuild artifacts whenever source content changes"`

	Serve struct {
		Addr string `help:"Listen address" default:":8080"`
	} `cmd:"" help:"Serve the artifact tree for local preview"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Resolve struct {
		Path    string `arg:"" help:"Artifact path, e.g. company/basic-info.json"`
		Locale  string `short:"l" help:"Locale to resolve for"`
		BaseURL string `help:"Content API base URL" default:"http://localhost:8080"`
	} `cmd:"" help:"Fetch and print a resolved artifact (debugging aid)"`

	Version struct{} `cmd:"" help:"Print version and exit"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch ctx.Command() {
	case "build":
		cfg := mustLoadConfig()
		if CLI.Build.Output != "" {
			cfg.Output.Dir = CLI.Build.Output
		}
		report, err := runBuild(context.Background(), cfg)
		if err != nil {
			slog.Error("Build failed", logfields.Error(err))
			os.Exit(1)
		}
		if report.writeFailures > 0 {
			slog.Error("Build completed with write failures",
				logfields.Count(report.writeFailures))
			os.Exit(1)
		}
	case "watch":
		cfg := mustLoadConfig()
		if err := runWatch(cfg, CLI.Watch.Serve, CLI.Watch.Addr); err != nil {
			slog.Error("Watch failed", logfields.Error(err))
			os.Exit(1)
		}
	case "serve":
		cfg := mustLoadConfig()
		if err := runServe(cfg, CLI.Serve.Addr); err != nil {
			slog.Error("Serve failed", logfields.Error(err))
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", logfields.Error(err))
			os.Exit(1)
		}
		slog.Info("Configuration created", logfields.Path(CLI.Config))
	case "resolve <path>":
		if err := runResolve(context.Background(), CLI.Resolve.BaseURL, CLI.Resolve.Path, CLI.Resolve.Locale); err != nil {
			slog.Error("Resolve failed", logfields.Error(err))
			os.Exit(1)
		}
	case "version":
		fmt.Println(version.Version)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}
	return cfg
}

// buildReport aggregates the per-stage reports of one full build.
type buildReport struct {
	buildID          string
	artifactsWritten int
	writeFailures    int
	articlesIndexed  int
	duration         time.Duration
	outcome          string
}

// runBuild executes one full synthesis pass: optional git sync, entity and
// services synthesis, news indexing, the manifest, and the build log entry.
func runBuild(ctx context.Context, cfg *config.Config) (*buildReport, error) {
	rec := buildRecorder(cfg)
	return runBuildWithRecorder(ctx, cfg, rec)
}

func runBuildWithRecorder(ctx context.Context, cfg *config.Config, rec metrics.Recorder) (*buildReport, error) {
	start := time.Now()
	rep := &buildReport{buildID: uuid.NewString()}

	slog.Info("Starting content build",
		logfields.BuildID(rep.buildID),
		logfields.Path(cfg.Content.Dir),
		slog.String("output", cfg.Output.Dir))

	if cfg.Content.RepoURL != "" {
		if err := gitsource.Ensure(ctx, cfg.Content); err != nil {
			rep.outcome = "failed"
			rec.IncBuildOutcome(rep.outcome)
			return rep, fmt.Errorf("content repository sync: %w", err)
		}
	}

	writer, err := artifact.NewWriter(cfg.Output.Dir)
	if err != nil {
		rep.outcome = "failed"
		rec.IncBuildOutcome(rep.outcome)
		return rep, err
	}

	m := manifest.New(version.Version, start.UTC())

	synthRep, err := synth.New(cfg, writer, synth.WithRecorder(rec)).Run(ctx, m)
	if err != nil {
		rep.outcome = "failed"
		rec.IncBuildOutcome(rep.outcome)
		return rep, err
	}
	rep.artifactsWritten += synthRep.ArtifactsWritten
	rep.writeFailures += synthRep.WriteFailures

	newsRep, err := newsindex.New(cfg, writer, newsindex.WithRecorder(rec)).Run(ctx, m)
	if err != nil {
		rep.outcome = "failed"
		rec.IncBuildOutcome(rep.outcome)
		return rep, err
	}
	rep.articlesIndexed = newsRep.ArticlesIndexed
	rep.writeFailures += newsRep.WriteFailures

	if err := writer.WriteJSON("cms-index.json", m); err != nil {
		slog.Error("Failed to write manifest", logfields.Error(err))
		rep.writeFailures++
	} else {
		rep.artifactsWritten++
	}

	rep.duration = time.Since(start)
	rep.outcome = "success"
	if rep.writeFailures > 0 {
		rep.outcome = "warning"
	}
	rec.ObserveBuildDuration(rep.duration)
	rec.IncBuildOutcome(rep.outcome)

	appendBuildLog(ctx, cfg, start, rep)

	slog.Info("Build finished",
		logfields.BuildID(rep.buildID),
		logfields.Count(rep.artifactsWritten),
		slog.Int("write_failures", rep.writeFailures),
		slog.Int("articles", rep.articlesIndexed),
		logfields.DurationMS(float64(rep.duration.Milliseconds())),
		slog.String("outcome", rep.outcome))

	return rep, nil
}

func appendBuildLog(ctx context.Context, cfg *config.Config, start time.Time, rep *buildReport) {
	if cfg.BuildLog.Path == "" {
		return
	}
	store, err := buildlog.Open(cfg.BuildLog.Path)
	if err != nil {
		slog.Warn("Build log unavailable", logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Append(ctx, buildlog.Run{
		ID:               rep.buildID,
		StartedAt:        start,
		DurationMS:       rep.duration.Milliseconds(),
		ArtifactsWritten: rep.artifactsWritten,
		WriteFailures:    rep.writeFailures,
		ArticlesIndexed:  rep.articlesIndexed,
		Outcome:          rep.outcome,
	}); err != nil {
		slog.Warn("Failed to record build", logfields.Error(err))
	}
}

// buildRecorder returns a Prometheus recorder when metrics are enabled,
// otherwise the noop recorder.
func buildRecorder(cfg *config.Config) metrics.Recorder {
	if cfg.Monitoring != nil && cfg.Monitoring.Metrics.Enabled {
		return metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	}
	return metrics.NoopRecorder{}
}

func runWatch(cfg *config.Config, serve bool, addr string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rec := buildRecorder(cfg)

	var publisher *notify.Publisher
	if cfg.Notify != nil && cfg.Notify.Enabled {
		p, err := notify.NewPublisher(cfg.Notify)
		if err != nil {
			return err
		}
		publisher = p
		defer func() { _ = publisher.Close() }()
	}

	rebuild := func(ctx context.Context, reason string) error {
		slog.Info("Rebuilding", slog.String("reason", reason))
		rep, err := runBuildWithRecorder(ctx, cfg, rec)
		if err != nil {
			return err
		}
		if publisher != nil {
			if perr := publisher.PublishRebuild(notify.RebuildEvent{
				BuildID:          rep.buildID,
				ArtifactsWritten: rep.artifactsWritten,
				WriteFailures:    rep.writeFailures,
				ArticlesIndexed:  rep.articlesIndexed,
				Outcome:          rep.outcome,
			}); perr != nil {
				slog.Warn("Failed to publish rebuild event", logfields.Error(perr))
			}
		}
		return nil
	}

	// Initial build before watching so the artifact tree is never stale.
	if err := rebuild(ctx, "startup"); err != nil {
		return err
	}

	var opts []watch.Option
	if cfg.Watch != nil {
		if cfg.Watch.DebounceSeconds > 0 {
			opts = append(opts, watch.WithDebounce(time.Duration(cfg.Watch.DebounceSeconds)*time.Second))
		}
		if cfg.Watch.Schedule != "" {
			opts = append(opts, watch.WithSchedule(cfg.Watch.Schedule))
		}
	}
	watcher, err := watch.New(cfg.Content.Dir, rebuild, opts...)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	var srv *server.Server
	if serve {
		srv = newPreviewServer(cfg, addr, rec)
		if err := srv.Start(ctx); err != nil {
			_ = watcher.Stop()
			return err
		}
	}

	slog.Info("Watching for content changes, press Ctrl+C to stop")
	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if srv != nil {
		if err := srv.Stop(stopCtx); err != nil {
			slog.Error("Error stopping preview server", logfields.Error(err))
		}
	}
	return watcher.Stop()
}

func runServe(cfg *config.Config, addr string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := newPreviewServer(cfg, addr, buildRecorder(cfg))
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return srv.Stop(stopCtx)
}

func newPreviewServer(cfg *config.Config, addr string, rec metrics.Recorder) *server.Server {
	opts := server.Options{Addr: addr, ArtifactDir: cfg.Output.Dir}
	if pr, ok := rec.(*metrics.PrometheusRecorder); ok {
		opts.MetricsHandler = pr.Handler()
		if cfg.Monitoring != nil && cfg.Monitoring.Metrics.Path != "" {
			opts.MetricsPath = cfg.Monitoring.Metrics.Path
		}
	}
	return server.New(opts)
}

func runResolve(ctx context.Context, baseURL, path, locale string) error {
	client := resolver.NewClient(baseURL)

	var res resolver.Resolution
	if locale != "" {
		res = client.ResolveLocalized(ctx, path, locale, nil)
	} else {
		res = client.Resolve(ctx, path, nil)
	}
	if res.Err != nil {
		return res.Err
	}

	out, err := json.MarshalIndent(res.Content, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
