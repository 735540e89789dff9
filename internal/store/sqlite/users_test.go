package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/inkwell-hq/inkwell/internal/model"
	"github.com/inkwell-hq/inkwell/internal/store"
)

func TestUserAccounts(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	id := mustCreateUser(t, st, "writer")

	u, err := st.FindUserByUsername(context.Background(), "writer")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if u.ID != id || u.Role != model.RoleUser {
		t.Fatalf("unexpected user: %+v", u)
	}

	_, err = st.CreateUser(context.Background(), &model.User{
		Username:     "writer",
		PasswordHash: "y",
		Role:         model.RoleUser,
		CreatedAt:    time.Now(),
	})
	if err != store.ErrDuplicateUsername {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	if err := st.UpdateUserRole(context.Background(), id, model.RoleAdmin); err != nil {
		t.Fatalf("update role: %v", err)
	}
	u, _ = st.FindUserByID(context.Background(), id)
	if u.Role != model.RoleAdmin {
		t.Fatalf("expected role admin, got %v", u.Role)
	}

	if err := st.UpdateUserRole(context.Background(), 999, model.RoleUser); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	mustCreateUser(t, st, "one")
	mustCreateUser(t, st, "two")
	mustCreateUser(t, st, "three")

	users, err := st.ListUsers(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
}

func TestDeleteUserCascades(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	alice := mustCreateUser(t, st, "alice")
	bob := mustCreateUser(t, st, "bob")
	carol := mustCreateUser(t, st, "carol")
	articleID := mustCreateArticle(t, st, alice, "Kept Post")

	ctx := context.Background()
	commentID, err := st.CreateComment(ctx, &model.Comment{
		ArticleID: articleID,
		AuthorID:  bob,
		Content:   "from bob",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	for _, e := range []struct {
		rel           model.Relation
		actor, target int64
	}{
		{model.RelationArticleLike, bob, articleID},
		{model.RelationFollow, bob, alice},
		{model.RelationCommentLike, carol, commentID},
	} {
		if _, err := st.AttachEdge(ctx, e.rel, e.actor, e.target); err != nil {
			t.Fatalf("attach %s: %v", e.rel, err)
		}
	}

	if err := st.DeleteUser(ctx, bob); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := st.FindUserByID(ctx, bob); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	article, err := st.GetArticle(ctx, articleID)
	if err != nil {
		t.Fatalf("get article: %v", err)
	}
	if article.LikeCount != 0 || article.CommentCount != 0 {
		t.Fatalf("expected counters reset, got likes=%d comments=%d", article.LikeCount, article.CommentCount)
	}
	owner, _ := st.FindUserByID(ctx, alice)
	if owner.FollowerCount != 0 {
		t.Fatalf("expected follower_count 0, got %d", owner.FollowerCount)
	}
	if _, err := st.GetComment(ctx, commentID); err != store.ErrNotFound {
		t.Fatalf("expected comment gone, got %v", err)
	}
	if exists, _ := st.EdgeExists(ctx, model.RelationCommentLike, carol, commentID); exists {
		t.Fatal("expected comment-like edge gone")
	}

	// Deleting the author tears down their articles too.
	if err := st.DeleteUser(ctx, alice); err != nil {
		t.Fatalf("delete author: %v", err)
	}
	if _, err := st.GetArticle(ctx, articleID); err != store.ErrNotFound {
		t.Fatalf("expected article gone, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	id := mustCreateUser(t, st, "ephemeral")
	if err := st.DeleteUser(context.Background(), id); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := st.FindUserByID(context.Background(), id); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.DeleteUser(context.Background(), id); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
