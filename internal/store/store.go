package store

import (
	"context"
	"errors"

	"github.com/inkwell-hq/inkwell/internal/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("duplicate username")
)

type ArticleListOpts struct {
	Limit  int
	Cursor int64
}

type Store interface {
	UserStore
	ArticleStore
	CommentStore
	InteractionStore
	Close() error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	FindUserByID(ctx context.Context, id int64) (model.User, error)
	FindUserByUsername(ctx context.Context, username string) (model.User, error)
	UpdateUserRole(ctx context.Context, id int64, role model.Role) error
	ListUsers(ctx context.Context, limit, offset int) ([]model.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type ArticleStore interface {
	CreateArticle(ctx context.Context, article *model.Article) (int64, error)
	GetArticle(ctx context.Context, id int64) (model.Article, error)
	ListArticles(ctx context.Context, opts ArticleListOpts) ([]model.Article, error)
	UpdateArticle(ctx context.Context, id int64, title, content string) error
	DeleteArticle(ctx context.Context, id int64) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) (int64, error)
	GetComment(ctx context.Context, id int64) (model.Comment, error)
	ListCommentsByArticle(ctx context.Context, articleID int64) ([]model.Comment, error)
}

// ToggleOutcome reports what a toggle mutation actually did. Changed is false
// when the relation was already in the requested state; Count is the target's
// counter after the operation. Underflow is set when a detach deleted an edge
// but the counter was already at zero, which indicates drift.
type ToggleOutcome struct {
	Changed   bool
	Count     int
	Underflow bool
}

// InteractionStore persists the binary actor->target relations. Attach and
// Detach mutate the edge row and the target's denormalized counter in one
// transaction; a counter update never commits without its edge change.
type InteractionStore interface {
	AttachEdge(ctx context.Context, rel model.Relation, actorID, targetID int64) (ToggleOutcome, error)
	DetachEdge(ctx context.Context, rel model.Relation, actorID, targetID int64) (ToggleOutcome, error)
	EdgeExists(ctx context.Context, rel model.Relation, actorID, targetID int64) (bool, error)
	CountEdges(ctx context.Context, rel model.Relation, targetID int64) (int, error)
}
