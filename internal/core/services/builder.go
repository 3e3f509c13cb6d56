package services

import (
	"time"

	"github.com/msc-search/harvester/internal/core/domain"
)

// BuildDocument normalizes one pull request plus its labels, threads,
// and free-standing comments into the indexable Document. Pure: the
// same inputs always produce the same Document.
func BuildDocument(pr domain.PullRequest, labels []domain.Label, threads domain.Threads, comments []domain.Comment) domain.Document {
	author := pr.Author
	authorURL := pr.AuthorURL
	if author == "" {
		// Deleted accounts resolve to a populated sentinel so the
		// index field is always searchable.
		author = domain.UnknownAuthor
		authorURL = ""
	}

	if labels == nil {
		labels = []domain.Label{}
	}
	if threads == nil {
		threads = make(domain.Threads)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}

	return domain.Document{
		UID:       pr.Number,
		Author:    author,
		AuthorURL: authorURL,
		Body:      pr.Body,
		Closed:    pr.Closed,
		ClosedAt:  posixSeconds(pr.ClosedAt),
		CreatedAt: posixSeconds(pr.CreatedAt),
		Merged:    pr.Merged,
		MergedAt:  posixSeconds(pr.MergedAt),
		Number:    pr.Number,
		Permalink: pr.Permalink,
		Title:     pr.Title,
		State:     pr.State,
		UpdatedAt: posixSeconds(pr.UpdatedAt),
		Threads:   threads,
		Comments:  comments,
		Labels:    labels,
	}
}

// posixSeconds converts an optional timestamp to whole POSIX seconds.
// Absent or zero dates stay nil and the field is omitted on the wire;
// "no merge" must never become the epoch.
func posixSeconds(t *time.Time) *int64 {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Unix()
	return &s
}
