package scraper

import (
	"context"
	"fmt"

	"github.com/dickeyy/github-review-export/types"
	"github.com/google/go-github/v74/github"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBase  = "master"
	DefaultLimit = 400
)

// Source is the subset of the GitHub API the collector walks. Implementations
// are expected to follow pagination themselves.
type Source interface {
	GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error)
	ListPullRequests(ctx context.Context, owner, repo, base string, limit int) ([]*github.PullRequest, error)
	ListRequestedReviewers(ctx context.Context, owner, repo string, number int) (*github.Reviewers, error)
	ListReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error)
	ListReviewComments(ctx context.Context, owner, repo string, number int, reviewID int64) ([]*github.PullRequestComment, error)
}

type Options struct {
	Owner string
	Repo  string
	Base  string
	Limit int
}

type Result struct {
	PullRequests []types.PullRequestRecord
	Reviews      []types.ReviewRecord
	Comments     []types.CommentRecord
}

// Run resolves the repository, then walks its closed pull requests newest
// first, collecting each one's reviews and the top-level comments of every
// review. The first error aborts the whole run.
func Run(ctx context.Context, src Source, opts Options) (*Result, error) {
	if opts.Base == "" {
		opts.Base = DefaultBase
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultLimit
	}

	repository, err := src.GetRepository(ctx, opts.Owner, opts.Repo)
	if err != nil {
		return nil, fmt.Errorf("resolve repository %s/%s: %w", opts.Owner, opts.Repo, err)
	}
	owner := repository.GetOwner().GetLogin()
	if owner == "" {
		owner = opts.Owner
	}
	repo := repository.GetName()
	if repo == "" {
		repo = opts.Repo
	}

	prs, err := src.ListPullRequests(ctx, owner, repo, opts.Base, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list pull requests: %w", err)
	}
	if len(prs) > opts.Limit {
		prs = prs[:opts.Limit]
	}
	log.Info().Str("owner", owner).Str("repo", repo).Str("base", opts.Base).Int("total_prs", len(prs)).Msg("ready to process PRs")

	res := &Result{
		PullRequests: make([]types.PullRequestRecord, 0, len(prs)),
		Reviews:      []types.ReviewRecord{},
		Comments:     []types.CommentRecord{},
	}

	for index, pr := range prs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := collectPullRequest(ctx, src, owner, repo, pr, res); err != nil {
			return nil, err
		}
		log.Info().Int("index", index).Int("pr_number", pr.GetNumber()).Msg("pull request appended")
	}

	log.Info().
		Str("owner", owner).
		Str("repo", repo).
		Int("pull_requests", len(res.PullRequests)).
		Int("reviews", len(res.Reviews)).
		Int("comments", len(res.Comments)).
		Msg("completed PR processing")

	return res, nil
}

func collectPullRequest(ctx context.Context, src Source, owner, repo string, pr *github.PullRequest, res *Result) error {
	number := pr.GetNumber()

	requested, err := src.ListRequestedReviewers(ctx, owner, repo, number)
	if err != nil {
		return fmt.Errorf("list requested reviewers for PR #%d: %w", number, err)
	}
	// Only individual users count as assigned; team requests are ignored.
	var assigned []*github.User
	if requested != nil {
		assigned = requested.Users
	}
	res.PullRequests = append(res.PullRequests, SerializePullRequest(pr, assigned))

	reviews, err := src.ListReviews(ctx, owner, repo, number)
	if err != nil {
		return fmt.Errorf("list reviews for PR #%d: %w", number, err)
	}

	for _, review := range reviews {
		res.Reviews = append(res.Reviews, SerializeReview(pr.GetID(), review))

		comments, err := src.ListReviewComments(ctx, owner, repo, number, review.GetID())
		if err != nil {
			return fmt.Errorf("list comments for review %d on PR #%d: %w", review.GetID(), number, err)
		}
		for _, comment := range comments {
			if rec, ok := SerializeComment(review.GetID(), comment); ok {
				res.Comments = append(res.Comments, rec)
			}
		}
	}

	return nil
}
