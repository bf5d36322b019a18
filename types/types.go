package types

import "time"

type PullRequestRecord struct {
	BaseBranch        string   `json:"base_branch"`
	CreatedAt         string   `json:"created_at"`
	IsDraft           bool     `json:"is_draft"`
	ID                int64    `json:"pr_id"`
	MergedAt          *string  `json:"merged_at"`
	State             string   `json:"pr_state"`
	CreatedBy         string   `json:"created_by"`
	AssignedReviewers []string `json:"assigned_reviewers"`
}

type ReviewRecord struct {
	PullRequestID int64   `json:"pr_id"`
	ID            int64   `json:"rw_id"`
	User          string  `json:"rw_user"`
	SubmittedAt   string  `json:"submitted_at"`
	State         string  `json:"rw_state"`
	Body          *string `json:"rw_body"`
}

type CommentRecord struct {
	ReviewID  int64  `json:"rw_id"`
	Body      string `json:"cm_body"`
	CreatedAt string `json:"cm_creation_time"`
	ID        int64  `json:"cm_id"`
	User      string `json:"cm_user"`
}

const (
	isoLayout      = "2006-01-02T15:04:05"
	isoMicroLayout = "2006-01-02T15:04:05.000000"
)

// ISOTime renders t in UTC without an offset. Microseconds are only printed
// when non-zero.
func ISOTime(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format(isoMicroLayout)
	}
	return t.Format(isoLayout)
}
