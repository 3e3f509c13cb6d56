// Package driven defines the outbound ports the harvest pipeline
// depends on. Adapters (GitHub client, index client, progress sink,
// state store) implement these so the core services stay testable with
// fakes.
package driven

import (
	"context"

	"github.com/msc-search/harvester/internal/core/domain"
)

// PullRequestPage is one page of the pull-request listing together with
// the opaque cursor reached after it. Resuming a later harvest from
// Cursor continues at the first unfetched page.
type PullRequestPage struct {
	Items  []domain.PullRequest
	Cursor string
}

// PullRequestPager yields the pull-request listing one page at a time.
// Pages are fetched lazily, in the order the source API returns them.
type PullRequestPager interface {
	// Next returns the next page, or (nil, nil) when the listing is
	// exhausted. A mid-sequence request failure aborts the sequence;
	// no partial page is ever returned.
	Next(ctx context.Context) (*PullRequestPage, error)
}

// Source provides rate-limit-aware access to the repository being
// harvested.
type Source interface {
	// AwaitQuota blocks until the API quota allows a harvest to start.
	// An unreachable quota endpoint is fatal.
	AwaitQuota(ctx context.Context) error

	// PullRequests opens the listing, optionally resuming from a
	// previously echoed cursor (empty string starts from the beginning).
	PullRequests(cursor string) (PullRequestPager, error)

	// Comments returns the full ordered review-comment stream for one
	// pull request. Pagination always restarts from the beginning.
	Comments(ctx context.Context, number int) ([]domain.Comment, error)

	// Labels returns the labels attached to one pull request, already
	// projected to the indexable shape.
	Labels(ctx context.Context, number int) ([]domain.Label, error)
}
