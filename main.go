package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"

	"github.com/dickeyy/github-review-export/db"
	"github.com/dickeyy/github-review-export/export"
	"github.com/dickeyy/github-review-export/report"
	"github.com/dickeyy/github-review-export/scraper"
	"github.com/dickeyy/github-review-export/services"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal().Err(err).Msg("failed to load .env file")
	}
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	var (
		owner  string
		repo   string
		base   string
		limit  int
		outDir string
	)

	flag.StringVar(&owner, "owner", "facebook", "GitHub repository owner/org")
	flag.StringVar(&repo, "repo", "react", "GitHub repository name")
	flag.StringVar(&base, "base", scraper.DefaultBase, "Base branch pull requests must target")
	flag.IntVar(&limit, "limit", scraper.DefaultLimit, "Maximum number of closed pull requests to export")
	flag.StringVar(&outDir, "out", "data", "Existing directory the JSON files are written to")
	flag.Parse()

	ctx := context.Background()
	token := os.Getenv("GITHUB_TOKEN")
	gh := services.NewGitHub(ctx, token)

	res, err := scraper.Run(ctx, gh, scraper.Options{Owner: owner, Repo: repo, Base: base, Limit: limit})
	if err != nil {
		log.Fatal().Err(err).Msg("scrape failed")
	}

	for _, out := range []struct {
		name string
		data any
	}{
		{"pull_requests", res.PullRequests},
		{"reviews", res.Reviews},
		{"comments", res.Comments},
	} {
		if _, err := export.ToJSON(outDir, out.name, out.data); err != nil {
			log.Fatal().Err(err).Msg("export failed")
		}
	}

	if connString := os.Getenv("DATABASE_URL"); connString != "" {
		store, err := db.Open(ctx, connString)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Postgres")
		}
		defer store.Close()
		if err := store.Save(ctx, res.PullRequests, res.Reviews, res.Comments); err != nil {
			store.Close()
			log.Fatal().Err(err).Msg("failed to save records")
		}
	}

	core, err := gh.Limits(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read rate limits")
	}
	var gqlRate *services.GraphQLRate
	if token != "" {
		rate, err := services.NewGraphQL(services.NewHTTPClient(ctx, token)).RateLimit(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("failed to read GraphQL rate limits")
		} else {
			gqlRate = &rate
		}
	}
	report.Limits(log.Logger, core, gqlRate)
}
