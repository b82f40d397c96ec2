package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/william-eth/web-tech-feeder/internal/config"
	"github.com/william-eth/web-tech-feeder/pkg/cache"
	"github.com/william-eth/web-tech-feeder/pkg/collect"
	"github.com/william-eth/web-tech-feeder/pkg/digest"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/crates"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/github"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/goproxy"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/maven"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/npm"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/packagist"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/pypi"
	"github.com/william-eth/web-tech-feeder/pkg/integrations/rubygems"
	"github.com/william-eth/web-tech-feeder/pkg/mail"
	"github.com/william-eth/web-tech-feeder/pkg/render"
	"github.com/william-eth/web-tech-feeder/pkg/summarize"
)

// newCollectCmd creates the collect command: one full digest run from
// collection through delivery. A scheduler (cron, CI) invokes this on its
// weekly cadence.
func newCollectCmd() *cobra.Command {
	var (
		sourcesPath string
		outputPath  string
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect all sources and produce the weekly digest",
		Long: `Collect runs every configured source job, summarizes the results,
and renders the digest HTML. With DRY_RUN=true the document is written to
the output path instead of being mailed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd.Context(), sourcesPath, outputPath)
		},
	}

	cmd.Flags().StringVarP(&sourcesPath, "sources", "s", "sources.toml", "path to the source configuration")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "digest.html", "dry-run output path")

	return cmd
}

func runCollect(ctx context.Context, sourcesPath, outputPath string) error {
	logger := loggerFromContext(ctx)

	opts, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading options: %w", err)
	}
	sources, err := config.LoadSources(sourcesPath)
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}

	runID := uuid.NewString()[:8]
	logger = logger.With("run", runID)

	now := time.Now()
	cutoff := digest.Cutoff(now, opts.LookbackDays)
	logger.Info("starting digest run",
		"cutoff", cutoff.Format(time.RFC3339),
		"token", opts.GitHubToken != "",
		"parallel", opts.CollectParallel)

	run := cache.NewRun(cache.NewMemory(), logger)
	defer run.Close()

	client := github.NewClient(run, opts.GitHubToken, logger)
	resolver := github.NewResolver(client, opts.DeepPRCrawl, 0, nil)

	fetchers := map[string]collect.RegistryFetcher{
		"npm":       npm.NewClient(run),
		"pypi":      pypi.NewClient(run),
		"crates":    crates.NewClient(run),
		"rubygems":  rubygems.NewClient(run),
		"maven":     maven.NewClient(run),
		"packagist": packagist.NewClient(run),
		"goproxy":   goproxy.NewClient(run),
	}

	jobs := make(map[digest.Category][]collect.Collector, len(sources))
	for cat, cs := range sources {
		var cols []collect.Collector
		if len(cs.Repos) > 0 {
			cols = append(cols,
				collect.NewReleaseCollector(resolver, cs.Repos, cutoff, opts.MaxRepoThreads, logger),
				collect.NewIssueCollector(resolver, cs.Repos, cutoff, opts.MaxRepoThreads, logger),
			)
		}
		if len(cs.AdvisoryEcosystems) > 0 {
			cols = append(cols, collect.NewAdvisoryCollector(client, cs.AdvisoryEcosystems, cutoff, logger))
		}
		if len(cs.Feeds) > 0 {
			cols = append(cols, collect.NewFeedCollector(cs.Feeds, cutoff, resolver, run, opts.MaxRepoThreads, logger))
		}
		if len(cs.Packages) > 0 {
			cols = append(cols, collect.NewRegistryCollector(fetchers, cs.Packages, cutoff, opts.MaxRepoThreads, logger))
		}
		jobs[cat] = cols
	}

	prog := newProgress(logger)
	orchestrator := collect.NewOrchestrator(logger, opts.CollectParallel, opts.MaxCollectThreads)
	collected := orchestrator.Run(ctx, jobs)
	total := 0
	for _, items := range collected {
		total += len(items)
	}
	prog.done(fmt.Sprintf("Collected %d items", total))

	summarizer := summarize.New(opts.OpenAIKey, opts.OpenAIModel, logger)
	entries := summarize.Filter(summarizer.Run(ctx, collected), opts.MinImportance)

	html, err := render.Digest(runID, now, entries)
	if err != nil {
		return fmt.Errorf("rendering digest: %w", err)
	}

	if opts.DryRun {
		if err := os.WriteFile(outputPath, html, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		printSuccess("Dry run: digest written to %s", StyleHighlight.Render(outputPath))
		printDetail("%d items across %d categories", total, len(collected))
		return nil
	}

	sender := mail.NewSender(mail.Config{
		Host:     opts.SMTPHost,
		Port:     opts.SMTPPort,
		Username: opts.SMTPUsername,
		Password: opts.SMTPPassword,
		From:     opts.MailFrom,
		To:       opts.MailTo,
	})
	subject := fmt.Sprintf("Weekly Tech Digest — %s", now.Format("2006-01-02"))
	if err := sender.Send(ctx, subject, html); err != nil {
		printError("Delivery failed: %v", err)
		return err
	}
	printSuccess("Digest delivered to %d recipients", len(opts.MailTo))
	return nil
}
