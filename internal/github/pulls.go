package github

import (
	"context"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/msc-search/harvester/internal/core/domain"
	"github.com/msc-search/harvester/internal/core/ports/driven"
)

// Ensure Client satisfies the source port.
var _ driven.Source = (*Client)(nil)

// PullRequests opens the pull-request listing, resuming from a
// previously echoed cursor when one is supplied.
func (c *Client) PullRequests(cursor string) (driven.PullRequestPager, error) {
	cur, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	return &pullRequestPager{client: c, page: cur.Page}, nil
}

// pullRequestPager fetches the listing one page per Next call. The
// listing is sorted created-ascending so resumed harvests see a stable
// page order.
type pullRequestPager struct {
	client *Client
	page   int
	done   bool
}

// Next fetches the next listing page. A request failure aborts the
// sequence; no partial page is yielded.
func (p *pullRequestPager) Next(ctx context.Context) (*driven.PullRequestPage, error) {
	if p.done {
		return nil, nil
	}

	opts := &gh.PullRequestListOptions{
		State:     "all",
		Sort:      "created",
		Direction: "asc",
		ListOptions: gh.ListOptions{
			Page:    p.page,
			PerPage: p.client.cfg.PageSize,
		},
	}

	var (
		prs  []*gh.PullRequest
		resp *gh.Response
	)
	err := p.client.withRetry(ctx, "list pull requests", func(ctx context.Context) (*gh.Response, error) {
		var err error
		prs, resp, err = p.client.gh.PullRequests.List(ctx, p.client.cfg.Owner, p.client.cfg.Repo, opts)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	if len(prs) == 0 {
		p.done = true
		return nil, nil
	}

	items := make([]domain.PullRequest, len(prs))
	for i, pr := range prs {
		items[i] = convertPullRequest(pr)
	}

	// The echoed cursor names the next page to fetch. On the final
	// page it re-points at that page, so a resumed harvest picks up
	// pull requests appended to it since.
	next := p.page
	if resp.NextPage != 0 {
		next = resp.NextPage
	} else {
		p.done = true
	}

	return &driven.PullRequestPage{
		Items:  items,
		Cursor: (&Cursor{Version: CursorVersion, Page: next}).Encode(),
	}, nil
}

// convertPullRequest narrows a wire pull request to the domain record.
func convertPullRequest(pr *gh.PullRequest) domain.PullRequest {
	// The list endpoint omits the merged flag; merged_at stands in.
	merged := pr.MergedAt != nil

	return domain.PullRequest{
		Number:    pr.GetNumber(),
		Author:    pr.GetUser().GetLogin(),
		AuthorURL: pr.GetUser().GetHTMLURL(),
		Body:      pr.GetBody(),
		Title:     pr.GetTitle(),
		State:     pr.GetState(),
		Closed:    pr.GetState() == "closed",
		Merged:    merged,
		Permalink: pr.GetHTMLURL(),
		CreatedAt: timeOf(pr.CreatedAt),
		UpdatedAt: timeOf(pr.UpdatedAt),
		ClosedAt:  timeOf(pr.ClosedAt),
		MergedAt:  timeOf(pr.MergedAt),
	}
}

// timeOf unwraps an optional wire timestamp. Absent or zero dates stay
// absent instead of collapsing into the epoch.
func timeOf(ts *gh.Timestamp) *time.Time {
	if ts == nil || ts.Time.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}
