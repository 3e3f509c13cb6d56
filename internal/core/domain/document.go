// Package domain defines the canonical data model for the harvester:
// the raw records pulled from the source API and the Document shape
// delivered to the search index.
package domain

import (
	"strconv"
	"time"
)

// UnknownAuthor is substituted when the remote author record is absent
// (deleted account). The index field is always populated.
const UnknownAuthor = "unknown author"

// PrimaryKey is the attribute the index uses to identify documents.
const PrimaryKey = "uid"

// PullRequest is the narrowed pull-request record fetched from the
// source API. An empty Author means the remote user was deleted.
type PullRequest struct {
	Number    int
	Author    string
	AuthorURL string
	Body      string
	Title     string
	State     string
	Closed    bool
	Merged    bool
	Permalink string

	CreatedAt *time.Time
	UpdatedAt *time.Time
	ClosedAt  *time.Time
	MergedAt  *time.Time
}

// Label is the projection of a remote label record down to the two
// fields the index needs.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CommentUser is the author sub-record of a review comment. The whole
// record is absent when the remote user was deleted.
type CommentUser struct {
	Name      string `json:"name,omitempty"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url,omitempty"`
	URL       string `json:"url"`
}

// Reactions is the reaction-count summary attached to a review comment.
type Reactions struct {
	URL        string `json:"url"`
	TotalCount int    `json:"total_count"`
	PlusOne    int    `json:"+1"`
	MinusOne   int    `json:"-1"`
	Laugh      int    `json:"laugh"`
	Confused   int    `json:"confused"`
	Heart      int    `json:"heart"`
	Hooray     int    `json:"hooray"`
	Eyes       int    `json:"eyes"`
	Rocket     int    `json:"rocket"`
}

// Link is a single hypermedia link.
type Link struct {
	Href string `json:"href"`
}

// CommentLinks is the link sub-record of a review comment.
type CommentLinks struct {
	Self        Link `json:"self"`
	HTML        Link `json:"html"`
	PullRequest Link `json:"pull_request"`
}

// Comment is a review comment anchored to a pull request's diff.
// ReviewID is nil for free-standing comments.
type Comment struct {
	URL               string       `json:"url"`
	ReviewID          *int64       `json:"pull_request_review_id,omitempty"`
	ID                int64        `json:"id"`
	DiffHunk          string       `json:"diff_hunk"`
	Path              string       `json:"path"`
	Position          *int         `json:"position,omitempty"`
	CommitID          string       `json:"commit_id"`
	InReplyTo         *int64       `json:"in_reply_to_id,omitempty"`
	User              *CommentUser `json:"user,omitempty"`
	Body              string       `json:"body"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	PullRequestURL    string       `json:"pull_request_url"`
	AuthorAssociation string       `json:"author_association"`
	Links             CommentLinks `json:"_links"`
	StartLine         *int         `json:"start_line,omitempty"`
	StartSide         *string      `json:"start_side,omitempty"`
	Line              *int         `json:"line,omitempty"`
	Side              *string      `json:"side,omitempty"`
	SubjectType       *string      `json:"subject_type,omitempty"`
	Reactions         *Reactions   `json:"reactions,omitempty"`
}

// Threads groups review comments by the review they belong to. Keys are
// decimal review identifiers; values preserve fetch order.
type Threads map[string][]Comment

// ThreadKey renders a review identifier as a Threads map key.
func ThreadKey(reviewID int64) string {
	return strconv.FormatInt(reviewID, 10)
}

// Document is the indexable unit delivered to the search index. The
// pull request number doubles as the index primary key. Lifecycle
// timestamps are POSIX seconds; a nil value means the source date was
// absent and the field is omitted from the wire form, so "never merged"
// stays distinguishable from the epoch.
type Document struct {
	UID       int       `json:"uid"`
	Author    string    `json:"author"`
	AuthorURL string    `json:"author_url,omitempty"`
	Body      string    `json:"body"`
	Closed    bool      `json:"closed"`
	ClosedAt  *int64    `json:"closedAt,omitempty"`
	CreatedAt *int64    `json:"createdAt,omitempty"`
	Merged    bool      `json:"merged"`
	MergedAt  *int64    `json:"mergedAt,omitempty"`
	Number    int       `json:"number"`
	Permalink string    `json:"permalink"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	UpdatedAt *int64    `json:"updatedAt,omitempty"`
	Threads   Threads   `json:"threads"`
	Comments  []Comment `json:"comments"`
	Labels    []Label   `json:"labels"`
}
