package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	t.Run("collects every page of the stream in order", func(t *testing.T) {
		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/repos/o/r/pulls/42/comments", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "created", q.Get("sort"))
			assert.Equal(t, "asc", q.Get("direction"))

			switch q.Get("page") {
			case "", "1":
				w.Header().Set("Link", fmt.Sprintf(`<%s/repos/o/r/pulls/42/comments?page=2>; rel="next"`, srv.URL))
				fmt.Fprint(w, `[
					{"id":1,"pull_request_review_id":100,"body":"first"},
					{"id":2,"pull_request_review_id":100,"body":"second","in_reply_to_id":1}
				]`)
			case "2":
				fmt.Fprint(w, `[{"id":3,"body":"free-standing"}]`)
			default:
				t.Fatalf("unexpected page %q", q.Get("page"))
			}
		}))
		defer srv.Close()

		client := newTestClient(t, srv)
		comments, err := client.Comments(context.Background(), 42)

		require.NoError(t, err)
		require.Len(t, comments, 3)
		assert.Equal(t, int64(1), comments[0].ID)
		assert.Equal(t, int64(3), comments[2].ID)

		require.NotNil(t, comments[1].ReviewID)
		assert.Equal(t, int64(100), *comments[1].ReviewID)
		require.NotNil(t, comments[1].InReplyTo)
		assert.Equal(t, int64(1), *comments[1].InReplyTo)
		assert.Nil(t, comments[2].ReviewID, "free-standing comment keeps no review id")
	})

	t.Run("converts the full wire record", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[
				{"id":7,"url":"https://api.example.com/comments/7",
				 "html_url":"https://example.com/comments/7",
				 "pull_request_url":"https://api.example.com/pulls/42",
				 "pull_request_review_id":200,
				 "diff_hunk":"@@ -1 +1 @@","path":"proposals/0042.md",
				 "commit_id":"abc123","body":"inline remark",
				 "created_at":"2021-05-14T12:30:45Z",
				 "author_association":"MEMBER",
				 "position":4,"line":12,"side":"RIGHT",
				 "user":{"login":"alice","avatar_url":"https://example.com/a.png","html_url":"https://example.com/alice"},
				 "reactions":{"url":"https://api.example.com/comments/7/reactions","total_count":3,"+1":2,"-1":0,"heart":1}}
			]`)
		}))
		defer srv.Close()

		client := newTestClient(t, srv)
		comments, err := client.Comments(context.Background(), 42)

		require.NoError(t, err)
		require.Len(t, comments, 1)
		c := comments[0]

		assert.Equal(t, int64(7), c.ID)
		assert.Equal(t, "proposals/0042.md", c.Path)
		assert.Equal(t, "abc123", c.CommitID)
		assert.Equal(t, "MEMBER", c.AuthorAssociation)
		require.NotNil(t, c.Position)
		assert.Equal(t, 4, *c.Position)
		require.NotNil(t, c.Side)
		assert.Equal(t, "RIGHT", *c.Side)
		assert.Nil(t, c.StartLine, "absent optionals stay nil")

		require.NotNil(t, c.User)
		assert.Equal(t, "alice", c.User.Login)
		assert.Equal(t, "https://example.com/alice", c.User.URL)

		require.NotNil(t, c.Reactions)
		assert.Equal(t, 3, c.Reactions.TotalCount)
		assert.Equal(t, 2, c.Reactions.PlusOne)
		assert.Equal(t, 1, c.Reactions.Heart)

		assert.Equal(t, "https://api.example.com/comments/7", c.Links.Self.Href)
		assert.Equal(t, "https://example.com/comments/7", c.Links.HTML.Href)
		assert.Equal(t, "https://api.example.com/pulls/42", c.Links.PullRequest.Href)
	})

	t.Run("a pull request with no comments yields an empty stream", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[]`)
		}))
		defer srv.Close()

		client := newTestClient(t, srv)
		comments, err := client.Comments(context.Background(), 42)

		require.NoError(t, err)
		assert.Empty(t, comments)
	})
}

func TestLabels(t *testing.T) {
	t.Run("projects name and color", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/repos/o/r/issues/42/labels", r.URL.Path)
			fmt.Fprint(w, `[
				{"name":"proposal","color":"00ff00","description":"ignored"},
				{"name":"kind:feature","color":"112233"}
			]`)
		}))
		defer srv.Close()

		client := newTestClient(t, srv)
		labels, err := client.Labels(context.Background(), 42)

		require.NoError(t, err)
		require.Len(t, labels, 2)
		assert.Equal(t, "proposal", labels[0].Name)
		assert.Equal(t, "00ff00", labels[0].Color)
		assert.Equal(t, "kind:feature", labels[1].Name)
	})

	t.Run("an unlabelled pull request yields an empty set", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[]`)
		}))
		defer srv.Close()

		client := newTestClient(t, srv)
		labels, err := client.Labels(context.Background(), 42)

		require.NoError(t, err)
		assert.Empty(t, labels)
	})
}
