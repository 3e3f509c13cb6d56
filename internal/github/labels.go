package github

import (
	"context"

	gh "github.com/google/go-github/v80/github"

	"github.com/msc-search/harvester/internal/core/domain"
)

// Labels returns the labels attached to one pull request, projected to
// the two fields the index keeps.
func (c *Client) Labels(ctx context.Context, number int) ([]domain.Label, error) {
	var all []domain.Label

	opts := &gh.ListOptions{PerPage: c.cfg.PageSize}

	for {
		var (
			labels []*gh.Label
			resp   *gh.Response
		)
		err := c.withRetry(ctx, "list labels", func(ctx context.Context) (*gh.Response, error) {
			var err error
			labels, resp, err = c.gh.Issues.ListLabelsByIssue(ctx, c.cfg.Owner, c.cfg.Repo, number, opts)
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, label := range labels {
			all = append(all, domain.Label{
				Name:  label.GetName(),
				Color: label.GetColor(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}
