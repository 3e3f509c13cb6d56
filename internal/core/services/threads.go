// Package services contains the harvest pipeline's pure logic and the
// orchestrator tying the driven ports together.
package services

import (
	"github.com/msc-search/harvester/internal/core/domain"
)

// AggregateThreads partitions the full ordered comment stream of one
// pull request into review threads and free-standing comments. A
// comment carrying a review identifier lands in exactly one thread;
// one without lands in the free-standing list. Order within each
// bucket is the fetch order. Grouping is by review identifier only:
// in_reply_to_id is carried as data but never chased, so a reply whose
// parent sits outside the fetched window still lands deterministically.
func AggregateThreads(comments []domain.Comment) (domain.Threads, []domain.Comment) {
	threads := make(domain.Threads)
	freeStanding := make([]domain.Comment, 0)

	for _, comment := range comments {
		if comment.ReviewID != nil {
			key := domain.ThreadKey(*comment.ReviewID)
			threads[key] = append(threads[key], comment)
			continue
		}
		freeStanding = append(freeStanding, comment)
	}

	return threads, freeStanding
}
