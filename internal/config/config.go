// Package config loads the runtime toggles from the environment and the
// source configuration from a TOML document.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/william-eth/web-tech-feeder/pkg/collect"
	"github.com/william-eth/web-tech-feeder/pkg/summarize"
)

// Options are the per-run toggles, read from the environment.
type Options struct {
	LookbackDays      int
	MinImportance     summarize.Importance
	DeepPRCrawl       bool
	CollectParallel   bool
	MaxCollectThreads int
	MaxRepoThreads    int
	DryRun            bool

	GitHubToken string
	OpenAIKey   string
	OpenAIModel string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailTo       []string
}

// Load reads options from the environment, after loading .env if present.
// Thread caps default token-aware when unset.
func Load() (*Options, error) {
	_ = godotenv.Load()

	opts := &Options{
		LookbackDays:    envInt("LOOKBACK_DAYS", 7),
		DeepPRCrawl:     envBool("DEEP_PR_CRAWL", true),
		CollectParallel: envBool("COLLECT_PARALLEL", true),
		DryRun:          envBool("DRY_RUN", false),
		GitHubToken:     os.Getenv("GITHUB_TOKEN"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_MODEL"),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        envInt("SMTP_PORT", 587),
		SMTPUsername:    os.Getenv("SMTP_USERNAME"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		MailFrom:        os.Getenv("MAIL_FROM"),
	}

	if opts.LookbackDays <= 0 {
		return nil, fmt.Errorf("LOOKBACK_DAYS must be positive")
	}

	minImportance, err := summarize.ParseImportance(os.Getenv("DIGEST_MIN_IMPORTANCE"))
	if err != nil {
		return nil, fmt.Errorf("DIGEST_MIN_IMPORTANCE: %w", err)
	}
	opts.MinImportance = minImportance

	sourceDefault, repoDefault := collect.DefaultThreads(opts.GitHubToken != "")
	opts.MaxCollectThreads = envInt("MAX_COLLECT_THREADS", sourceDefault)
	opts.MaxRepoThreads = envInt("MAX_REPO_THREADS", repoDefault)
	if opts.MaxCollectThreads <= 0 || opts.MaxRepoThreads <= 0 {
		return nil, fmt.Errorf("thread caps must be positive")
	}

	for _, addr := range strings.Split(os.Getenv("MAIL_TO"), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			opts.MailTo = append(opts.MailTo, addr)
		}
	}
	return opts, nil
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

