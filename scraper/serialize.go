package scraper

import (
	"github.com/dickeyy/github-review-export/types"
	"github.com/google/go-github/v74/github"
)

// SerializePullRequest flattens pr together with its assigned reviewers.
// Reviewer order is preserved and an empty list stays an empty list.
func SerializePullRequest(pr *github.PullRequest, assigned []*github.User) types.PullRequestRecord {
	reviewers := make([]string, 0, len(assigned))
	for _, u := range assigned {
		reviewers = append(reviewers, u.GetLogin())
	}

	var mergedAt *string
	if pr.MergedAt != nil {
		s := types.ISOTime(pr.MergedAt.Time)
		mergedAt = &s
	}

	return types.PullRequestRecord{
		BaseBranch:        pr.GetBase().GetRef(),
		CreatedAt:         types.ISOTime(pr.GetCreatedAt().Time),
		IsDraft:           pr.GetDraft(),
		ID:                pr.GetID(),
		MergedAt:          mergedAt,
		State:             pr.GetState(),
		CreatedBy:         pr.GetUser().GetLogin(),
		AssignedReviewers: reviewers,
	}
}

func SerializeReview(pullRequestID int64, review *github.PullRequestReview) types.ReviewRecord {
	var body *string
	if review.Body != nil {
		b := *review.Body
		body = &b
	}

	return types.ReviewRecord{
		PullRequestID: pullRequestID,
		ID:            review.GetID(),
		User:          review.GetUser().GetLogin(),
		SubmittedAt:   types.ISOTime(review.GetSubmittedAt().Time),
		State:         review.GetState(),
		Body:          body,
	}
}

// SerializeComment returns false for replies; only top-level review comments
// are exported.
func SerializeComment(reviewID int64, comment *github.PullRequestComment) (types.CommentRecord, bool) {
	if comment.InReplyTo != nil {
		return types.CommentRecord{}, false
	}

	return types.CommentRecord{
		ReviewID:  reviewID,
		Body:      comment.GetBody(),
		CreatedAt: types.ISOTime(comment.GetCreatedAt().Time),
		ID:        comment.GetID(),
		User:      comment.GetUser().GetLogin(),
	}, true
}
