// Command quay-tags fetches and ranks image tags from Quay.io. It is a
// thin front end over the quay client: list recent tags, resolve a full
// image reference, or check that a repository is accessible.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	quaytags "github.com/wolfeidau/quay-tags"
	"github.com/wolfeidau/quay-tags/credentials"
	"github.com/wolfeidau/quay-tags/quay"
	"github.com/wolfeidau/quay-tags/telemetry"
)

var version = "dev"

type cli struct {
	Token     string           `help:"Bearer token reference: env:NAME, file:PATH, or the literal token. Empty for anonymous access." env:"QUAY_TAGS_TOKEN"`
	APIBase   string           `name:"api-base" help:"Quay API base URL." default:"${api_base}"`
	LogLevel  string           `help:"Log level." enum:"debug,info,warn,error" default:"info"`
	LogFormat string           `help:"Log format." enum:"text,json" default:"text"`
	Version   kong.VersionFlag `help:"Print version and exit."`

	Tags     tagsCmd     `cmd:"" help:"List the most recent tags for a repository."`
	Resolve  resolveCmd  `cmd:"" help:"Resolve a full image reference, defaulting to the most recent tag."`
	Validate validateCmd `cmd:"" help:"Check that a repository exists and is accessible."`
}

type app struct {
	client *quay.Client
	logger *slog.Logger
}

type tagsCmd struct {
	Organization string `arg:"" help:"Organization or namespace."`
	Repository   string `arg:"" help:"Repository name."`
	Limit        int    `help:"Maximum number of tags to list." default:"20"`
	NamesOnly    bool   `help:"Print tag names only."`
}

func (c *tagsCmd) Run(a *app) error {
	tags, err := a.client.GetTags(context.Background(), c.Organization, c.Repository, c.Limit)
	if err != nil {
		return err
	}

	if c.NamesOnly {
		for _, name := range quaytags.Names(tags) {
			fmt.Println(name)
		}
		return nil
	}

	a.logger.Info("found tags", "count", len(tags),
		"repository", c.Organization+"/"+c.Repository)
	for _, t := range tags {
		fmt.Printf("%s\t%s\t%d\n", t.Name, t.ManifestDigest, t.SortTimestamp())
	}
	return nil
}

type resolveCmd struct {
	Organization string `arg:"" help:"Organization or namespace."`
	Repository   string `arg:"" help:"Repository name."`
	Tag          string `help:"Tag to resolve. Empty picks the most recent tag."`
}

func (c *resolveCmd) Run(a *app) error {
	ref, err := a.client.ResolveReference(context.Background(), c.Organization, c.Repository, c.Tag)
	if err != nil {
		return err
	}
	fmt.Println(ref)
	return nil
}

type validateCmd struct {
	Organization string `arg:"" help:"Organization or namespace."`
	Repository   string `arg:"" help:"Repository name."`
}

func (c *validateCmd) Run(a *app) error {
	if !a.client.ValidateRepository(context.Background(), c.Organization, c.Repository) {
		return fmt.Errorf("repository %s/%s is not accessible", c.Organization, c.Repository)
	}
	fmt.Printf("repository %s/%s is accessible\n", c.Organization, c.Repository)
	return nil
}

func main() {
	var flags cli

	kctx := kong.Parse(&flags,
		kong.Name("quay-tags"),
		kong.Description("Fetch and rank image tags from Quay.io."),
		kong.Vars{
			"version":  version,
			"api_base": quay.DefaultAPIBase,
		},
	)

	logger, err := buildLogger(flags.LogLevel, flags.LogFormat)
	kctx.FatalIfErrorf(err)

	resolver := credentials.NewResolver(credentials.WithLogger(logger))
	token, err := resolver.ResolveToken(context.Background(), flags.Token)
	kctx.FatalIfErrorf(err)

	httpClient := &http.Client{
		Timeout:   quay.DefaultTimeout,
		Transport: telemetry.NewInstrumentedTransport(nil, "quay.io"),
	}

	client := quay.NewClient(
		quay.WithAPIBase(flags.APIBase),
		quay.WithToken(token),
		quay.WithHTTPClient(httpClient),
		quay.WithLogger(logger),
	)

	err = kctx.Run(&app{client: client, logger: logger})
	kctx.FatalIfErrorf(err)
}

func buildLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: lvl})
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	return slog.New(handler), nil
}
