package model

import "time"

// Role is the closed set of principal roles. Tokens carry the role as an
// integer claim; anything outside this set is rejected at decode time.
type Role int

const (
	RoleAdmin Role = 1
	RoleUser  Role = 2
	RoleGuest Role = 3
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser || r == RoleGuest
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleUser:
		return "USER"
	case RoleGuest:
		return "GUEST"
	}
	return "UNKNOWN"
}

// Relation identifies one of the binary actor->target interaction types.
// The edge row's existence is the ON state; there is no soft delete.
type Relation string

const (
	RelationArticleLike     Relation = "article_like"
	RelationCommentLike     Relation = "comment_like"
	RelationArticleFavorite Relation = "article_favorite"
	RelationFollow          Relation = "follow"
)

func (r Relation) Valid() bool {
	switch r {
	case RelationArticleLike, RelationCommentLike, RelationArticleFavorite, RelationFollow:
		return true
	}
	return false
}

type User struct {
	ID            int64
	Username      string
	PasswordHash  string
	Nickname      string
	Bio           string
	AvatarURL     string
	Role          Role
	FollowerCount int
	CreatedAt     time.Time
}

type Article struct {
	ID            int64
	AuthorID      int64
	AuthorName    string
	Title         string
	Content       string
	Status        int
	LikeCount     int
	FavoriteCount int
	CommentCount  int
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

type Comment struct {
	ID         int64
	ArticleID  int64
	AuthorID   int64
	AuthorName string
	Content    string
	LikeCount  int
	CreatedAt  time.Time
}

// InteractionEdge is the persisted ON state for one (actor, target) pair of a
// given relation. At most one edge exists per (relation, actor, target).
type InteractionEdge struct {
	ID        int64
	Relation  Relation
	ActorID   int64
	TargetID  int64
	CreatedAt time.Time
}
