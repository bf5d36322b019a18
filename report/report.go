package report

import (
	"fmt"

	"github.com/dickeyy/github-review-export/services"
	"github.com/google/go-github/v74/github"
	"github.com/rs/zerolog"
)

const resetLayout = "2006-01-02 15:04:05"

// Limits logs the remaining REST quota and, when gql is non-nil, the GraphQL
// quota. It never changes control flow.
func Limits(logger zerolog.Logger, core github.Rate, gql *services.GraphQLRate) {
	resetsAt := core.Reset.Time.Local()
	logger.Info().
		Str("api", "rest").
		Int("remaining", core.Remaining).
		Int("limit", core.Limit).
		Time("reset", resetsAt).
		Msg(fmt.Sprintf("Limits: %d/%d %s", core.Remaining, core.Limit, resetsAt.Format(resetLayout)))

	if gql == nil {
		return
	}
	gqlReset := gql.ResetAt.Local()
	logger.Info().
		Str("api", "graphql").
		Int("remaining", gql.Remaining).
		Int("limit", gql.Limit).
		Time("reset", gqlReset).
		Msg(fmt.Sprintf("GraphQL limits: %d/%d %s", gql.Remaining, gql.Limit, gqlReset.Format(resetLayout)))
}
