package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shurcooL/githubv4"
)

// GraphQLRate is the GraphQL API budget, tracked separately from REST.
type GraphQLRate struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type GraphQL struct {
	client *githubv4.Client
}

func NewGraphQL(httpClient *http.Client) *GraphQL {
	return &GraphQL{client: githubv4.NewClient(httpClient)}
}

func NewGraphQLWithURL(url string, httpClient *http.Client) *GraphQL {
	return &GraphQL{client: githubv4.NewEnterpriseClient(url, httpClient)}
}

func (g *GraphQL) RateLimit(ctx context.Context) (GraphQLRate, error) {
	var q struct {
		RateLimit struct {
			Limit     githubv4.Int
			Remaining githubv4.Int
			ResetAt   githubv4.DateTime
		}
	}

	if err := g.client.Query(ctx, &q, nil); err != nil {
		return GraphQLRate{}, fmt.Errorf("query graphql rate limit: %w", err)
	}

	rate := GraphQLRate{
		Limit:     int(q.RateLimit.Limit),
		Remaining: int(q.RateLimit.Remaining),
		ResetAt:   q.RateLimit.ResetAt.Time,
	}
	log.Debug().Int("limit", rate.Limit).Int("remaining", rate.Remaining).Msg("fetched graphql rate limit")
	return rate, nil
}
