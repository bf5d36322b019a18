package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/go-github/v74/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testRepository() *github.Repository {
	return &github.Repository{
		Name:  github.Ptr("react"),
		Owner: &github.User{Login: github.Ptr("facebook")},
	}
}

func testPR(id int64, number int) *github.PullRequest {
	pr := fixturePullRequest(nil)
	pr.ID = github.Ptr(id)
	pr.Number = github.Ptr(number)
	return pr
}

func testReview(id int64) *github.PullRequestReview {
	r := fixtureReview(github.Ptr("lgtm"))
	r.ID = github.Ptr(id)
	return r
}

func testComment(id int64, inReplyTo *int64) *github.PullRequestComment {
	c := fixtureComment(inReplyTo)
	c.ID = github.Ptr(id)
	return c
}

func TestRun(t *testing.T) {
	t.Run("should collect pull requests, reviews and top-level comments", func(t *testing.T) {
		src := &MockSource{}
		ctx := context.Background()

		src.On("GetRepository", ctx, "FaceBook", "React").Return(testRepository(), nil).Once()
		src.On("ListPullRequests", ctx, "facebook", "react", "master", 400).
			Return([]*github.PullRequest{testPR(1000, 1), testPR(2000, 2)}, nil).Once()

		src.On("ListRequestedReviewers", ctx, "facebook", "react", 1).
			Return(&github.Reviewers{
				Users: []*github.User{fixtureUser("john"), fixtureUser("jane")},
				Teams: []*github.Team{{Slug: github.Ptr("core")}},
			}, nil).Once()
		src.On("ListReviews", ctx, "facebook", "react", 1).
			Return([]*github.PullRequestReview{testReview(11), testReview(12)}, nil).Once()
		src.On("ListReviewComments", ctx, "facebook", "react", 1, int64(11)).
			Return([]*github.PullRequestComment{testComment(111, nil), testComment(112, github.Ptr(int64(111)))}, nil).Once()
		src.On("ListReviewComments", ctx, "facebook", "react", 1, int64(12)).
			Return([]*github.PullRequestComment{}, nil).Once()

		src.On("ListRequestedReviewers", ctx, "facebook", "react", 2).
			Return(&github.Reviewers{}, nil).Once()
		src.On("ListReviews", ctx, "facebook", "react", 2).
			Return([]*github.PullRequestReview{testReview(21)}, nil).Once()
		src.On("ListReviewComments", ctx, "facebook", "react", 2, int64(21)).
			Return([]*github.PullRequestComment{testComment(211, nil)}, nil).Once()

		res, err := Run(ctx, src, Options{Owner: "FaceBook", Repo: "React"})

		require.NoError(t, err)
		src.AssertExpectations(t)

		require.Len(t, res.PullRequests, 2)
		assert.Equal(t, int64(1000), res.PullRequests[0].ID)
		assert.Equal(t, []string{"john", "jane"}, res.PullRequests[0].AssignedReviewers)
		assert.Equal(t, int64(2000), res.PullRequests[1].ID)
		assert.Equal(t, []string{}, res.PullRequests[1].AssignedReviewers)

		require.Len(t, res.Reviews, 3)
		assert.Equal(t, []int64{11, 12, 21}, []int64{res.Reviews[0].ID, res.Reviews[1].ID, res.Reviews[2].ID})
		assert.Equal(t, int64(1000), res.Reviews[0].PullRequestID)
		assert.Equal(t, int64(2000), res.Reviews[2].PullRequestID)

		require.Len(t, res.Comments, 2)
		assert.Equal(t, int64(111), res.Comments[0].ID)
		assert.Equal(t, int64(11), res.Comments[0].ReviewID)
		assert.Equal(t, int64(211), res.Comments[1].ID)
		assert.Equal(t, int64(21), res.Comments[1].ReviewID)
	})

	t.Run("should keep references consistent", func(t *testing.T) {
		src := &MockSource{}
		ctx := context.Background()

		src.On("GetRepository", ctx, "facebook", "react").Return(testRepository(), nil)
		src.On("ListPullRequests", ctx, "facebook", "react", "main", 10).
			Return([]*github.PullRequest{testPR(1, 1)}, nil)
		src.On("ListRequestedReviewers", ctx, "facebook", "react", 1).Return(&github.Reviewers{}, nil)
		src.On("ListReviews", ctx, "facebook", "react", 1).
			Return([]*github.PullRequestReview{testReview(5), testReview(6)}, nil)
		src.On("ListReviewComments", ctx, "facebook", "react", 1, mock.AnythingOfType("int64")).
			Return([]*github.PullRequestComment{testComment(9, nil)}, nil)

		res, err := Run(ctx, src, Options{Owner: "facebook", Repo: "react", Base: "main", Limit: 10})
		require.NoError(t, err)

		prIDs := map[int64]bool{}
		for _, pr := range res.PullRequests {
			prIDs[pr.ID] = true
		}
		reviewIDs := map[int64]bool{}
		for _, r := range res.Reviews {
			assert.True(t, prIDs[r.PullRequestID])
			reviewIDs[r.ID] = true
		}
		for _, c := range res.Comments {
			assert.True(t, reviewIDs[c.ReviewID])
		}
	})

	t.Run("should truncate to limit", func(t *testing.T) {
		src := &MockSource{}
		ctx := context.Background()

		src.On("GetRepository", ctx, "facebook", "react").Return(testRepository(), nil)
		src.On("ListPullRequests", ctx, "facebook", "react", "master", 1).
			Return([]*github.PullRequest{testPR(1, 1), testPR(2, 2)}, nil)
		src.On("ListRequestedReviewers", ctx, "facebook", "react", 1).Return(nil, nil)
		src.On("ListReviews", ctx, "facebook", "react", 1).Return([]*github.PullRequestReview{}, nil)

		res, err := Run(ctx, src, Options{Owner: "facebook", Repo: "react", Limit: 1})

		require.NoError(t, err)
		require.Len(t, res.PullRequests, 1)
		assert.Empty(t, res.Reviews)
		assert.NotNil(t, res.Comments)
		src.AssertNotCalled(t, "ListReviews", ctx, "facebook", "react", 2)
	})

	t.Run("should abort when repository lookup fails", func(t *testing.T) {
		src := &MockSource{}
		ctx := context.Background()
		notFound := errors.New("404 Not Found")

		src.On("GetRepository", ctx, "facebook", "nope").Return(nil, notFound)

		res, err := Run(ctx, src, Options{Owner: "facebook", Repo: "nope"})

		assert.Nil(t, res)
		assert.ErrorIs(t, err, notFound)
		src.AssertNotCalled(t, "ListPullRequests", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should abort on review comment failure", func(t *testing.T) {
		src := &MockSource{}
		ctx := context.Background()
		rateLimited := &github.RateLimitError{
			Response: &http.Response{
				Request:    &http.Request{Method: http.MethodGet, URL: &url.URL{Scheme: "https", Host: "api.github.com", Path: "/repos/facebook/react/pulls/1/reviews/5/comments"}},
				StatusCode: http.StatusForbidden,
			},
			Message: "API rate limit exceeded",
		}

		src.On("GetRepository", ctx, "facebook", "react").Return(testRepository(), nil)
		src.On("ListPullRequests", ctx, "facebook", "react", "master", 400).
			Return([]*github.PullRequest{testPR(1, 1), testPR(2, 2)}, nil)
		src.On("ListRequestedReviewers", ctx, "facebook", "react", 1).Return(&github.Reviewers{}, nil)
		src.On("ListReviews", ctx, "facebook", "react", 1).Return([]*github.PullRequestReview{testReview(5)}, nil)
		src.On("ListReviewComments", ctx, "facebook", "react", 1, int64(5)).Return(nil, rateLimited)

		res, err := Run(ctx, src, Options{Owner: "facebook", Repo: "react"})

		assert.Nil(t, res)
		var rlErr *github.RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.Contains(t, err.Error(), "review 5 on PR #1")
		src.AssertNotCalled(t, "ListRequestedReviewers", ctx, "facebook", "react", 2)
	})

	t.Run("should stop when context is cancelled", func(t *testing.T) {
		src := &MockSource{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		src.On("GetRepository", ctx, "facebook", "react").Return(testRepository(), nil)
		src.On("ListPullRequests", ctx, "facebook", "react", "master", 400).
			Return([]*github.PullRequest{testPR(1, 1)}, nil)

		res, err := Run(ctx, src, Options{Owner: "facebook", Repo: "react"})

		assert.Nil(t, res)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
