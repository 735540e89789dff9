package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/inkwell-hq/inkwell/internal/model"
	"github.com/inkwell-hq/inkwell/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func mustCreateUser(t *testing.T, st *Store, username string) int64 {
	t.Helper()
	id, err := st.CreateUser(context.Background(), &model.User{
		Username:     username,
		PasswordHash: "x",
		Role:         model.RoleUser,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return id
}

func mustCreateArticle(t *testing.T, st *Store, authorID int64, title string) int64 {
	t.Helper()
	now := time.Now()
	id, err := st.CreateArticle(context.Background(), &model.Article{
		AuthorID:    authorID,
		Title:       title,
		Content:     "body",
		Status:      1,
		CreatedAt:   now,
		PublishedAt: &now,
	})
	if err != nil {
		t.Fatalf("create article %s: %v", title, err)
	}
	return id
}

func TestArticleLifecycle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	author := mustCreateUser(t, st, "author")
	id := mustCreateArticle(t, st, author, "First Post")

	got, err := st.GetArticle(context.Background(), id)
	if err != nil {
		t.Fatalf("get article: %v", err)
	}
	if got.Title != "First Post" {
		t.Fatalf("unexpected title: %s", got.Title)
	}
	if got.AuthorName != "author" {
		t.Fatalf("expected author name join, got %q", got.AuthorName)
	}

	comment := model.Comment{
		ArticleID: id,
		AuthorID:  author,
		Content:   "Hello",
		CreatedAt: time.Now(),
	}
	if _, err := st.CreateComment(context.Background(), &comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	updated, _ := st.GetArticle(context.Background(), id)
	if updated.CommentCount != 1 {
		t.Fatalf("expected comment_count 1, got %d", updated.CommentCount)
	}

	if err := st.UpdateArticle(context.Background(), id, "Edited", "new body"); err != nil {
		t.Fatalf("update article: %v", err)
	}
	updated, _ = st.GetArticle(context.Background(), id)
	if updated.Title != "Edited" {
		t.Fatalf("expected edited title, got %s", updated.Title)
	}
}

func TestCommentOnMissingArticle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	author := mustCreateUser(t, st, "author")
	_, err := st.CreateComment(context.Background(), &model.Comment{
		ArticleID: 999,
		AuthorID:  author,
		Content:   "orphan",
		CreatedAt: time.Now(),
	})
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAttachEdgeIdempotent(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	author := mustCreateUser(t, st, "author")
	actor := mustCreateUser(t, st, "actor")
	articleID := mustCreateArticle(t, st, author, "Likeable")

	out, err := st.AttachEdge(context.Background(), model.RelationArticleLike, actor, articleID)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if !out.Changed || out.Count != 1 {
		t.Fatalf("expected changed with count 1, got %+v", out)
	}

	out, err = st.AttachEdge(context.Background(), model.RelationArticleLike, actor, articleID)
	if err != nil {
		t.Fatalf("attach again: %v", err)
	}
	if out.Changed || out.Count != 1 {
		t.Fatalf("expected unchanged no-op with count 1, got %+v", out)
	}

	edges, err := st.CountEdges(context.Background(), model.RelationArticleLike, articleID)
	if err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if edges != 1 {
		t.Fatalf("expected 1 edge row, got %d", edges)
	}
}

func TestDetachEdgeFloor(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	author := mustCreateUser(t, st, "author")
	actor := mustCreateUser(t, st, "actor")
	articleID := mustCreateArticle(t, st, author, "Likeable")

	// OFF already: detach is a no-op, not an error, counter stays zero.
	out, err := st.DetachEdge(context.Background(), model.RelationArticleLike, actor, articleID)
	if err != nil {
		t.Fatalf("detach absent: %v", err)
	}
	if out.Changed || out.Count != 0 {
		t.Fatalf("expected unchanged with count 0, got %+v", out)
	}

	if _, err := st.AttachEdge(context.Background(), model.RelationArticleLike, actor, articleID); err != nil {
		t.Fatalf("attach: %v", err)
	}
	out, err = st.DetachEdge(context.Background(), model.RelationArticleLike, actor, articleID)
	if err != nil {
		t.Fatalf("detach: %v", err)
	}
	if !out.Changed || out.Count != 0 || out.Underflow {
		t.Fatalf("expected clean detach to 0, got %+v", out)
	}
}

func TestFollowUsesFollowerCount(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	alice := mustCreateUser(t, st, "alice")
	bob := mustCreateUser(t, st, "bob")

	out, err := st.AttachEdge(context.Background(), model.RelationFollow, alice, bob)
	if err != nil {
		t.Fatalf("follow: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("expected follower_count 1, got %d", out.Count)
	}

	target, err := st.FindUserByID(context.Background(), bob)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if target.FollowerCount != 1 {
		t.Fatalf("expected stored follower_count 1, got %d", target.FollowerCount)
	}
}

func TestDeleteArticleDropsEdges(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	author := mustCreateUser(t, st, "author")
	actor := mustCreateUser(t, st, "actor")
	articleID := mustCreateArticle(t, st, author, "Doomed")

	if _, err := st.AttachEdge(context.Background(), model.RelationArticleLike, actor, articleID); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, err := st.AttachEdge(context.Background(), model.RelationArticleFavorite, actor, articleID); err != nil {
		t.Fatalf("favorite: %v", err)
	}

	if err := st.DeleteArticle(context.Background(), articleID); err != nil {
		t.Fatalf("delete article: %v", err)
	}

	for _, rel := range []model.Relation{model.RelationArticleLike, model.RelationArticleFavorite} {
		edges, err := st.CountEdges(context.Background(), rel, articleID)
		if err != nil {
			t.Fatalf("count edges: %v", err)
		}
		if edges != 0 {
			t.Fatalf("expected edges of %s dropped, got %d", rel, edges)
		}
	}
}

func TestDeleteArticleWithComments(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	author := mustCreateUser(t, st, "author")
	actor := mustCreateUser(t, st, "actor")
	articleID := mustCreateArticle(t, st, author, "Discussed")

	comment := model.Comment{
		ArticleID: articleID,
		AuthorID:  actor,
		Content:   "Hello",
		CreatedAt: time.Now(),
	}
	commentID, err := st.CreateComment(context.Background(), &comment)
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if _, err := st.AttachEdge(context.Background(), model.RelationCommentLike, author, commentID); err != nil {
		t.Fatalf("like comment: %v", err)
	}

	if err := st.DeleteArticle(context.Background(), articleID); err != nil {
		t.Fatalf("delete commented article: %v", err)
	}

	if _, err := st.GetComment(context.Background(), commentID); err != store.ErrNotFound {
		t.Fatalf("expected comment gone, got %v", err)
	}
	edges, err := st.CountEdges(context.Background(), model.RelationCommentLike, commentID)
	if err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if edges != 0 {
		t.Fatalf("expected comment-like edges dropped, got %d", edges)
	}
}

func TestPragmasOnEveryConnection(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	// With no idle connections each query opens a fresh one; the pragma must
	// hold on all of them, not just the connection that ran the migrations.
	st.db.SetMaxIdleConns(0)
	for i := 0; i < 3; i++ {
		var fk int
		if err := st.db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
			t.Fatalf("read pragma: %v", err)
		}
		if fk != 1 {
			t.Fatalf("connection %d has foreign_keys off", i+1)
		}
	}
}

func TestAttachEdgeMissingTarget(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	actor := mustCreateUser(t, st, "actor")
	_, err := st.AttachEdge(context.Background(), model.RelationArticleLike, actor, 999)
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
