package scraper

import (
	"context"

	"github.com/google/go-github/v74/github"
	"github.com/stretchr/testify/mock"
)

type MockSource struct {
	mock.Mock
}

var _ Source = (*MockSource)(nil)

func (m *MockSource) GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error) {
	args := m.Called(ctx, owner, repo)
	r, _ := args.Get(0).(*github.Repository)
	return r, args.Error(1)
}

func (m *MockSource) ListPullRequests(ctx context.Context, owner, repo, base string, limit int) ([]*github.PullRequest, error) {
	args := m.Called(ctx, owner, repo, base, limit)
	prs, _ := args.Get(0).([]*github.PullRequest)
	return prs, args.Error(1)
}

func (m *MockSource) ListRequestedReviewers(ctx context.Context, owner, repo string, number int) (*github.Reviewers, error) {
	args := m.Called(ctx, owner, repo, number)
	r, _ := args.Get(0).(*github.Reviewers)
	return r, args.Error(1)
}

func (m *MockSource) ListReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error) {
	args := m.Called(ctx, owner, repo, number)
	r, _ := args.Get(0).([]*github.PullRequestReview)
	return r, args.Error(1)
}

func (m *MockSource) ListReviewComments(ctx context.Context, owner, repo string, number int, reviewID int64) ([]*github.PullRequestComment, error) {
	args := m.Called(ctx, owner, repo, number, reviewID)
	c, _ := args.Get(0).([]*github.PullRequestComment)
	return c, args.Error(1)
}
