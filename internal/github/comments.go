package github

import (
	"context"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/msc-search/harvester/internal/core/domain"
)

// Comments returns the full ordered review-comment stream for one pull
// request. Comment pagination always restarts from the first page:
// per-item comment sets are cheap to refetch and correctness trumps
// incremental cost. Successive pages are paced by CommentPageDelay.
func (c *Client) Comments(ctx context.Context, number int) ([]domain.Comment, error) {
	var all []domain.Comment

	opts := &gh.PullRequestListCommentsOptions{
		Sort:      "created",
		Direction: "asc",
		ListOptions: gh.ListOptions{
			PerPage: c.cfg.PageSize,
		},
	}

	for {
		var (
			comments []*gh.PullRequestComment
			resp     *gh.Response
		)
		err := c.withRetry(ctx, "list review comments", func(ctx context.Context) (*gh.Response, error) {
			var err error
			comments, resp, err = c.gh.PullRequests.ListComments(ctx, c.cfg.Owner, c.cfg.Repo, number, opts)
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, comment := range comments {
			all = append(all, convertComment(comment))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.CommentPageDelay):
		}
	}

	return all, nil
}

// convertComment narrows a wire review comment to the domain record.
func convertComment(c *gh.PullRequestComment) domain.Comment {
	out := domain.Comment{
		URL:               c.GetURL(),
		ID:                c.GetID(),
		DiffHunk:          c.GetDiffHunk(),
		Path:              c.GetPath(),
		CommitID:          c.GetCommitID(),
		Body:              c.GetBody(),
		CreatedAt:         c.GetCreatedAt().Time,
		UpdatedAt:         c.GetUpdatedAt().Time,
		PullRequestURL:    c.GetPullRequestURL(),
		AuthorAssociation: c.GetAuthorAssociation(),
		Links: domain.CommentLinks{
			Self:        domain.Link{Href: c.GetURL()},
			HTML:        domain.Link{Href: c.GetHTMLURL()},
			PullRequest: domain.Link{Href: c.GetPullRequestURL()},
		},
	}

	if c.PullRequestReviewID != nil {
		id := c.GetPullRequestReviewID()
		out.ReviewID = &id
	}
	if c.InReplyTo != nil {
		id := c.GetInReplyTo()
		out.InReplyTo = &id
	}
	if c.Position != nil {
		v := c.GetPosition()
		out.Position = &v
	}
	if c.StartLine != nil {
		v := c.GetStartLine()
		out.StartLine = &v
	}
	if c.StartSide != nil {
		v := c.GetStartSide()
		out.StartSide = &v
	}
	if c.Line != nil {
		v := c.GetLine()
		out.Line = &v
	}
	if c.Side != nil {
		v := c.GetSide()
		out.Side = &v
	}
	if c.SubjectType != nil {
		v := c.GetSubjectType()
		out.SubjectType = &v
	}

	if user := c.GetUser(); user != nil {
		out.User = &domain.CommentUser{
			Name:      user.GetName(),
			Login:     user.GetLogin(),
			AvatarURL: user.GetAvatarURL(),
			URL:       user.GetHTMLURL(),
		}
	}

	if reactions := c.GetReactions(); reactions != nil {
		out.Reactions = &domain.Reactions{
			URL:        reactions.GetURL(),
			TotalCount: reactions.GetTotalCount(),
			PlusOne:    reactions.GetPlusOne(),
			MinusOne:   reactions.GetMinusOne(),
			Laugh:      reactions.GetLaugh(),
			Confused:   reactions.GetConfused(),
			Heart:      reactions.GetHeart(),
			Hooray:     reactions.GetHooray(),
			Eyes:       reactions.GetEyes(),
			Rocket:     reactions.GetRocket(),
		}
	}

	return out
}
