package services

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/go-github/v74/github"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const perPage = 100

// GitHub wraps a REST client created once per process. It remembers the rate
// limit reported by the most recent response.
type GitHub struct {
	client *github.Client

	mu   sync.Mutex
	rate github.Rate
}

// NewGitHub returns an authenticated client when token is set and an
// anonymous one otherwise.
func NewGitHub(ctx context.Context, token string) *GitHub {
	if token != "" {
		log.Info().Bool("token_present", true).Msg("GitHub client initialized")
		return NewGitHubWithClient(github.NewClient(NewHTTPClient(ctx, token)))
	}

	log.Info().Bool("token_present", false).Msg("GitHub client initialized")
	return NewGitHubWithClient(github.NewClient(nil))
}

func NewGitHubWithClient(client *github.Client) *GitHub {
	return &GitHub{client: client}
}

// NewHTTPClient returns an oauth2 client for token, or nil when token is
// empty so callers fall back to their default transport.
func NewHTTPClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return nil
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return oauth2.NewClient(ctx, ts)
}

func (g *GitHub) GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error) {
	repository, resp, err := g.client.Repositories.Get(ctx, owner, repo)
	g.observe(resp)
	if err != nil {
		return nil, g.inspect(err, "get repository")
	}

	log.Info().Str("owner", owner).Str("repo", repo).Int64("repo_id", repository.GetID()).Msg("resolved repository")
	return repository, nil
}

// ListPullRequests returns up to limit closed pull requests against base,
// newest first.
func (g *GitHub) ListPullRequests(ctx context.Context, owner, repo, base string, limit int) ([]*github.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:     "closed",
		Base:      base,
		Sort:      "created",
		Direction: "desc",
		ListOptions: github.ListOptions{
			PerPage: perPage,
			Page:    1,
		},
	}
	if limit > 0 && limit < perPage {
		opts.PerPage = limit
	}

	log.Info().Str("owner", owner).Str("repo", repo).Str("base", base).Int("limit", limit).Int("per_page", opts.PerPage).Msg("begin fetching PRs")

	var allPRs []*github.PullRequest
	for {
		log.Debug().Str("owner", owner).Str("repo", repo).Int("page", opts.Page).Int("per_page", opts.PerPage).Msg("fetching PR page")

		pagePRs, resp, err := g.client.PullRequests.List(ctx, owner, repo, opts)
		g.observe(resp)
		if err != nil {
			return nil, g.inspect(err, "list pull requests")
		}

		allPRs = append(allPRs, pagePRs...)
		if resp != nil {
			log.Info().Str("owner", owner).Str("repo", repo).Int("page", opts.Page).Int("page_count", len(pagePRs)).Int("total_so_far", len(allPRs)).Int("rate_remaining", resp.Rate.Remaining).Time("rate_reset", resp.Rate.Reset.Time).Msg("fetched PR page")
		}

		if limit > 0 && len(allPRs) >= limit {
			allPRs = allPRs[:limit]
			break
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.Info().Str("owner", owner).Str("repo", repo).Int("total", len(allPRs)).Msg("completed fetching PRs")
	return allPRs, nil
}

// ListRequestedReviewers merges every page of pending review requests.
func (g *GitHub) ListRequestedReviewers(ctx context.Context, owner, repo string, number int) (*github.Reviewers, error) {
	opts := &github.ListOptions{PerPage: perPage, Page: 1}
	merged := &github.Reviewers{}
	for {
		page, resp, err := g.client.PullRequests.ListReviewers(ctx, owner, repo, number, opts)
		g.observe(resp)
		if err != nil {
			return nil, g.inspect(err, "list requested reviewers")
		}
		if page != nil {
			merged.Users = append(merged.Users, page.Users...)
			merged.Teams = append(merged.Teams, page.Teams...)
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return merged, nil
}

func (g *GitHub) ListReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error) {
	opts := &github.ListOptions{PerPage: perPage, Page: 1}
	var reviews []*github.PullRequestReview
	for {
		page, resp, err := g.client.PullRequests.ListReviews(ctx, owner, repo, number, opts)
		g.observe(resp)
		if err != nil {
			return nil, g.inspect(err, "list reviews")
		}
		reviews = append(reviews, page...)
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	log.Debug().Int("number", number).Int("reviews", len(reviews)).Msg("fetched reviews")
	return reviews, nil
}

func (g *GitHub) ListReviewComments(ctx context.Context, owner, repo string, number int, reviewID int64) ([]*github.PullRequestComment, error) {
	opts := &github.ListOptions{PerPage: perPage, Page: 1}
	var comments []*github.PullRequestComment
	for {
		page, resp, err := g.client.PullRequests.ListReviewComments(ctx, owner, repo, number, reviewID, opts)
		g.observe(resp)
		if err != nil {
			return nil, g.inspect(err, "list review comments")
		}
		comments = append(comments, page...)
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	log.Debug().Int("number", number).Int64("review_id", reviewID).Int("comments", len(comments)).Msg("fetched review comments")
	return comments, nil
}

// Limits returns the core rate limit seen on the last response. If no
// request has been made yet it asks the rate limit endpoint, which does not
// count against the quota.
func (g *GitHub) Limits(ctx context.Context) (github.Rate, error) {
	g.mu.Lock()
	rate := g.rate
	g.mu.Unlock()
	if rate.Limit > 0 {
		return rate, nil
	}

	limits, resp, err := g.client.RateLimit.Get(ctx)
	if err != nil {
		return github.Rate{}, g.inspect(err, "get rate limits")
	}
	if core := limits.GetCore(); core != nil {
		rate = *core
	} else if resp != nil {
		rate = resp.Rate
	}

	g.mu.Lock()
	g.rate = rate
	g.mu.Unlock()
	return rate, nil
}

func (g *GitHub) observe(resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	g.mu.Lock()
	g.rate = resp.Rate
	g.mu.Unlock()
}

// inspect logs rate limit failures with their reset time. Nothing is retried.
func (g *GitHub) inspect(err error, op string) error {
	var rlErr *github.RateLimitError
	if errors.As(err, &rlErr) {
		log.Warn().Str("op", op).Time("reset_at", rlErr.Rate.Reset.Time).Msg("rate limit reached")
		return err
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		ev := log.Warn().Str("op", op)
		if abuseErr.RetryAfter != nil {
			ev = ev.Dur("retry_after", *abuseErr.RetryAfter)
		}
		ev.Msg("abuse detection triggered")
		return err
	}

	log.Debug().Str("op", op).Err(err).Msg("GitHub request failed")
	return err
}
