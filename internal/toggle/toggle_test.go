package toggle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/model"
	"github.com/inkwell-hq/inkwell/internal/store/sqlite"
)

type fixture struct {
	store     *sqlite.Store
	svc       *Service
	userID    int64
	otherID   int64
	articleID int64
}

func newFixture(t *testing.T, dbName string) fixture {
	t.Helper()
	st, err := sqlite.Open("file:" + dbName + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	userID, err := st.CreateUser(ctx, &model.User{
		Username: "alice", PasswordHash: "x", Role: model.RoleUser, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	otherID, err := st.CreateUser(ctx, &model.User{
		Username: "bob", PasswordHash: "x", Role: model.RoleUser, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	articleID, err := st.CreateArticle(ctx, &model.Article{
		AuthorID: otherID, Title: "Hello", Content: "body", Status: 1, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	svc := NewService(st, 0, zap.NewNop())
	return fixture{store: st, svc: svc, userID: userID, otherID: otherID, articleID: articleID}
}

func TestRoundTripIdentity(t *testing.T) {
	f := newFixture(t, "toggle_roundtrip")
	ctx := context.Background()

	before, err := f.store.GetArticle(ctx, f.articleID)
	require.NoError(t, err)

	on, err := f.svc.TurnOn(ctx, model.RelationArticleLike, f.userID, f.articleID)
	require.NoError(t, err)
	require.True(t, on.Active)
	require.Equal(t, before.LikeCount+1, on.Count)

	off, err := f.svc.TurnOff(ctx, model.RelationArticleLike, f.userID, f.articleID)
	require.NoError(t, err)
	require.False(t, off.Active)
	require.Equal(t, before.LikeCount, off.Count)

	active, err := f.svc.Status(ctx, model.RelationArticleLike, f.userID, f.articleID)
	require.NoError(t, err)
	require.False(t, active)
}

func TestTurnOnIdempotent(t *testing.T) {
	f := newFixture(t, "toggle_idempotent")
	ctx := context.Background()

	first, err := f.svc.TurnOn(ctx, model.RelationArticleLike, f.userID, f.articleID)
	require.NoError(t, err)
	second, err := f.svc.TurnOn(ctx, model.RelationArticleLike, f.userID, f.articleID)
	require.NoError(t, err)

	require.Equal(t, first.Count, second.Count, "duplicate turn-on must not increment")
	require.True(t, second.Active)

	edges, err := f.store.CountEdges(ctx, model.RelationArticleLike, f.articleID)
	require.NoError(t, err)
	require.Equal(t, 1, edges)
}

func TestTurnOffFloor(t *testing.T) {
	f := newFixture(t, "toggle_floor")
	ctx := context.Background()

	// Already OFF: no-op, counter untouched.
	res, err := f.svc.TurnOff(ctx, model.RelationArticleLike, f.userID, f.articleID)
	require.NoError(t, err)
	require.False(t, res.Active)
	require.Equal(t, 0, res.Count)

	article, err := f.store.GetArticle(ctx, f.articleID)
	require.NoError(t, err)
	require.Equal(t, 0, article.LikeCount, "counter must never go negative")
}

func TestRepeatedLikeUnlikeNoDrift(t *testing.T) {
	f := newFixture(t, "toggle_drift")
	ctx := context.Background()

	before, err := f.store.GetArticle(ctx, f.articleID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.TurnOn(ctx, model.RelationArticleLike, f.userID, f.articleID)
		require.NoError(t, err)
		_, err = f.svc.TurnOff(ctx, model.RelationArticleLike, f.userID, f.articleID)
		require.NoError(t, err)
	}

	after, err := f.store.GetArticle(ctx, f.articleID)
	require.NoError(t, err)
	require.Equal(t, before.LikeCount, after.LikeCount)

	edges, err := f.store.CountEdges(ctx, model.RelationArticleLike, f.articleID)
	require.NoError(t, err)
	require.Equal(t, 0, edges)
}

func TestConcurrentTurnOnSingleIncrement(t *testing.T) {
	f := newFixture(t, "toggle_race")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.TurnOn(ctx, model.RelationArticleLike, f.userID, f.articleID)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	edges, err := f.store.CountEdges(ctx, model.RelationArticleLike, f.articleID)
	require.NoError(t, err)
	require.Equal(t, 1, edges, "exactly one edge after racing turn-ons")

	article, err := f.store.GetArticle(ctx, f.articleID)
	require.NoError(t, err)
	require.Equal(t, 1, article.LikeCount, "counter incremented exactly once")
}

func TestFollowUsesFollowerCounter(t *testing.T) {
	f := newFixture(t, "toggle_follow")
	ctx := context.Background()

	res, err := f.svc.TurnOn(ctx, model.RelationFollow, f.userID, f.otherID)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)

	followee, err := f.store.FindUserByID(ctx, f.otherID)
	require.NoError(t, err)
	require.Equal(t, 1, followee.FollowerCount)

	res, err = f.svc.TurnOff(ctx, model.RelationFollow, f.userID, f.otherID)
	require.NoError(t, err)
	require.Equal(t, 0, res.Count)
}

func TestUnknownRelationRejected(t *testing.T) {
	f := newFixture(t, "toggle_badrel")
	_, err := f.svc.TurnOn(context.Background(), model.Relation("bookmark"), f.userID, f.articleID)
	require.Error(t, err)
}
