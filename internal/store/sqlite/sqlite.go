package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkwell-hq/inkwell/internal/model"
	"github.com/inkwell-hq/inkwell/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	// Pragmas ride on the DSN so every connection in the database/sql pool
	// gets them, not just the one that happens to run an Exec. busy_timeout
	// makes concurrent writers queue instead of failing with SQLITE_BUSY.
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	nickname TEXT,
	bio TEXT,
	avatar_url TEXT,
	role INTEGER NOT NULL DEFAULT 2,
	follower_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);

CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	author_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	status INTEGER NOT NULL DEFAULT 1,
	like_count INTEGER NOT NULL DEFAULT 0,
	favorite_count INTEGER NOT NULL DEFAULT 0,
	comment_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	published_at INTEGER,
	FOREIGN KEY(author_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at DESC);

CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	article_id INTEGER NOT NULL,
	author_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	like_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(article_id) REFERENCES articles(id)
);
CREATE INDEX IF NOT EXISTS idx_comments_article_id ON comments(article_id);

CREATE TABLE IF NOT EXISTS interaction_edges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	relation TEXT NOT NULL,
	actor_id INTEGER NOT NULL,
	target_id INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_edges_unique ON interaction_edges(relation, actor_id, target_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON interaction_edges(relation, target_id);
`,
	// Future migrations go here:
	// Migration 2: `ALTER TABLE ...`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO users (username, password_hash, nickname, bio, avatar_url, role, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, user.Username, user.PasswordHash, nullIfEmpty(user.Nickname), nullIfEmpty(user.Bio), nullIfEmpty(user.AvatarURL), int(user.Role), user.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, store.ErrDuplicateUsername
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, nickname, bio, avatar_url, role, follower_count, created_at
FROM users
WHERE id = ?
`, id)
	return scanUser(row)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, nickname, bio, avatar_url, role, follower_count, created_at
FROM users
WHERE username = ?
`, username)
	return scanUser(row)
}

func (s *Store) UpdateUserRole(ctx context.Context, id int64, role model.Role) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, int(role), id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, username, password_hash, nickname, bio, avatar_url, role, follower_count, created_at
FROM users
ORDER BY created_at ASC
LIMIT ? OFFSET ?
`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// The user's outgoing likes, favorites and follows still count on their
	// targets; pull those counters back before dropping the edges.
	if _, err = tx.ExecContext(ctx, `
UPDATE articles SET like_count = like_count - 1
WHERE like_count > 0 AND id IN (SELECT target_id FROM interaction_edges WHERE relation = ? AND actor_id = ?)
`, string(model.RelationArticleLike), id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
UPDATE articles SET favorite_count = favorite_count - 1
WHERE favorite_count > 0 AND id IN (SELECT target_id FROM interaction_edges WHERE relation = ? AND actor_id = ?)
`, string(model.RelationArticleFavorite), id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
UPDATE comments SET like_count = like_count - 1
WHERE like_count > 0 AND id IN (SELECT target_id FROM interaction_edges WHERE relation = ? AND actor_id = ?)
`, string(model.RelationCommentLike), id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
UPDATE users SET follower_count = follower_count - 1
WHERE follower_count > 0 AND id IN (SELECT target_id FROM interaction_edges WHERE relation = ? AND actor_id = ?)
`, string(model.RelationFollow), id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
DELETE FROM interaction_edges WHERE actor_id = ? OR (relation = ? AND target_id = ?)
`, id, string(model.RelationFollow), id); err != nil {
		return err
	}

	// Their comments on other articles, with the comment counters they fed.
	if _, err = tx.ExecContext(ctx, `
UPDATE articles SET comment_count = comment_count - (
	SELECT COUNT(*) FROM comments WHERE comments.article_id = articles.id AND comments.author_id = ?
) WHERE id IN (SELECT DISTINCT article_id FROM comments WHERE author_id = ?)
`, id, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
DELETE FROM interaction_edges WHERE relation = ? AND target_id IN (SELECT id FROM comments WHERE author_id = ?)
`, string(model.RelationCommentLike), id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE author_id = ?`, id); err != nil {
		return err
	}

	// Their own articles, same teardown as DeleteArticle.
	if _, err = tx.ExecContext(ctx, `
DELETE FROM interaction_edges WHERE relation = ? AND target_id IN (
	SELECT c.id FROM comments c JOIN articles a ON a.id = c.article_id WHERE a.author_id = ?
)`, string(model.RelationCommentLike), id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
DELETE FROM comments WHERE article_id IN (SELECT id FROM articles WHERE author_id = ?)
`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
DELETE FROM interaction_edges WHERE relation IN (?, ?) AND target_id IN (SELECT id FROM articles WHERE author_id = ?)
`, string(model.RelationArticleLike), string(model.RelationArticleFavorite), id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM articles WHERE author_id = ?`, id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		err = store.ErrNotFound
		return err
	}
	return tx.Commit()
}

// ---- articles ----

func (s *Store) CreateArticle(ctx context.Context, article *model.Article) (int64, error) {
	var published any
	if article.PublishedAt != nil {
		published = article.PublishedAt.Unix()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO articles (author_id, title, content, status, created_at, published_at)
VALUES (?, ?, ?, ?, ?, ?)
`, article.AuthorID, article.Title, article.Content, article.Status, article.CreatedAt.Unix(), published)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetArticle(ctx context.Context, id int64) (model.Article, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT a.id, a.author_id, u.username, a.title, a.content, a.status, a.like_count, a.favorite_count, a.comment_count, a.created_at, a.published_at
FROM articles a
LEFT JOIN users u ON u.id = a.author_id
WHERE a.id = ?
`, id)
	return scanArticle(row)
}

func (s *Store) ListArticles(ctx context.Context, opts store.ArticleListOpts) ([]model.Article, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	var rows *sql.Rows
	var err error
	if opts.Cursor > 0 {
		rows, err = s.db.QueryContext(ctx, `
SELECT a.id, a.author_id, u.username, a.title, a.content, a.status, a.like_count, a.favorite_count, a.comment_count, a.created_at, a.published_at
FROM articles a
LEFT JOIN users u ON u.id = a.author_id
WHERE a.created_at < ?
ORDER BY a.created_at DESC
LIMIT ?
`, opts.Cursor, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
SELECT a.id, a.author_id, u.username, a.title, a.content, a.status, a.like_count, a.favorite_count, a.comment_count, a.created_at, a.published_at
FROM articles a
LEFT JOIN users u ON u.id = a.author_id
ORDER BY a.created_at DESC
LIMIT ?
`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (s *Store) UpdateArticle(ctx context.Context, id int64, title, content string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE articles SET title = ?, content = ? WHERE id = ?`, title, content, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteArticle(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Comments and every dependent edge go first: the comments FK references
	// the article row, and stale edges could resurrect counters.
	if _, err = tx.ExecContext(ctx, `
DELETE FROM interaction_edges
WHERE relation = ? AND target_id IN (SELECT id FROM comments WHERE article_id = ?)
`, string(model.RelationCommentLike), id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE article_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
DELETE FROM interaction_edges WHERE relation IN (?, ?) AND target_id = ?
`, string(model.RelationArticleLike), string(model.RelationArticleFavorite), id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		err = store.ErrNotFound
		return err
	}
	return tx.Commit()
}

// ---- comments ----

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
INSERT INTO comments (article_id, author_id, content, created_at)
VALUES (?, ?, ?, ?)
`, comment.ArticleID, comment.AuthorID, comment.Content, comment.CreatedAt.Unix())
	if err != nil {
		// The FK on article_id fires before the counter update can report
		// the missing article.
		if isForeignKeyViolation(err) {
			err = store.ErrNotFound
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	upd, err := tx.ExecContext(ctx, `UPDATE articles SET comment_count = comment_count + 1 WHERE id = ?`, comment.ArticleID)
	if err != nil {
		return 0, err
	}
	if rows, _ := upd.RowsAffected(); rows == 0 {
		err = store.ErrNotFound
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetComment(ctx context.Context, id int64) (model.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT c.id, c.article_id, c.author_id, u.username, c.content, c.like_count, c.created_at
FROM comments c
LEFT JOIN users u ON u.id = c.author_id
WHERE c.id = ?
`, id)
	return scanComment(row)
}

func (s *Store) ListCommentsByArticle(ctx context.Context, articleID int64) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.article_id, c.author_id, u.username, c.content, c.like_count, c.created_at
FROM comments c
LEFT JOIN users u ON u.id = c.author_id
WHERE c.article_id = ?
ORDER BY c.created_at DESC
`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ---- interaction edges ----

// counterTarget names the table and column holding the denormalized counter
// for a relation. Every relation maintains a stored counter; none of them
// recomputes from edge rows on reads.
type counterTarget struct {
	table  string
	column string
}

var counters = map[model.Relation]counterTarget{
	model.RelationArticleLike:     {table: "articles", column: "like_count"},
	model.RelationCommentLike:     {table: "comments", column: "like_count"},
	model.RelationArticleFavorite: {table: "articles", column: "favorite_count"},
	model.RelationFollow:          {table: "users", column: "follower_count"},
}

// AttachEdge inserts the edge row and increments the target's counter in one
// transaction. Inserting an edge that already exists is a no-op: the counter
// is left untouched so duplicate client calls cannot inflate it.
func (s *Store) AttachEdge(ctx context.Context, rel model.Relation, actorID, targetID int64) (store.ToggleOutcome, error) {
	ct, ok := counters[rel]
	if !ok {
		return store.ToggleOutcome{}, fmt.Errorf("unknown relation %q", rel)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.ToggleOutcome{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO interaction_edges (relation, actor_id, target_id, created_at)
VALUES (?, ?, ?, ?)
`, string(rel), actorID, targetID, time.Now().Unix())
	if err != nil {
		if isUniqueViolation(err) {
			// Already ON. Read the counter and report no change.
			err = nil
			count, cerr := s.readCounter(ctx, tx, ct, targetID)
			if cerr != nil {
				err = cerr
				return store.ToggleOutcome{}, err
			}
			if err = tx.Commit(); err != nil {
				return store.ToggleOutcome{}, err
			}
			return store.ToggleOutcome{Changed: false, Count: count}, nil
		}
		return store.ToggleOutcome{}, err
	}

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET %s = %s + 1 WHERE id = ?`, ct.table, ct.column, ct.column),
		targetID)
	if err != nil {
		return store.ToggleOutcome{}, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		err = store.ErrNotFound
		return store.ToggleOutcome{}, err
	}

	count, err := s.readCounter(ctx, tx, ct, targetID)
	if err != nil {
		return store.ToggleOutcome{}, err
	}
	if err = tx.Commit(); err != nil {
		return store.ToggleOutcome{}, err
	}
	return store.ToggleOutcome{Changed: true, Count: count}, nil
}

// DetachEdge deletes the edge row and decrements the counter in the same
// transaction. Deleting an absent edge is a no-op. The decrement is clamped
// at zero; Underflow reports when the clamp fired despite an edge existing.
func (s *Store) DetachEdge(ctx context.Context, rel model.Relation, actorID, targetID int64) (store.ToggleOutcome, error) {
	ct, ok := counters[rel]
	if !ok {
		return store.ToggleOutcome{}, fmt.Errorf("unknown relation %q", rel)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.ToggleOutcome{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
DELETE FROM interaction_edges WHERE relation = ? AND actor_id = ? AND target_id = ?
`, string(rel), actorID, targetID)
	if err != nil {
		return store.ToggleOutcome{}, err
	}
	deleted, _ := res.RowsAffected()
	outcome := store.ToggleOutcome{Changed: deleted > 0}

	if deleted > 0 {
		// The counter floor is enforced in SQL: the decrement only lands
		// when the counter is still positive.
		upd, uerr := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET %s = %s - 1 WHERE id = ? AND %s > 0`, ct.table, ct.column, ct.column, ct.column),
			targetID)
		if uerr != nil {
			err = uerr
			return store.ToggleOutcome{}, err
		}
		if rows, _ := upd.RowsAffected(); rows == 0 {
			outcome.Underflow = true
		}
	}

	count, err := s.readCounter(ctx, tx, ct, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Target gone; nothing left to count.
			err = nil
			outcome.Count = 0
			if err = tx.Commit(); err != nil {
				return store.ToggleOutcome{}, err
			}
			return outcome, nil
		}
		return store.ToggleOutcome{}, err
	}
	outcome.Count = count
	if err = tx.Commit(); err != nil {
		return store.ToggleOutcome{}, err
	}
	return outcome, nil
}

func (s *Store) EdgeExists(ctx context.Context, rel model.Relation, actorID, targetID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
SELECT 1 FROM interaction_edges WHERE relation = ? AND actor_id = ? AND target_id = ?
`, string(rel), actorID, targetID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountEdges recomputes a target's edge count from the rows. Reads go through
// the denormalized counters; this exists for reconciliation and tests.
func (s *Store) CountEdges(ctx context.Context, rel model.Relation, targetID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM interaction_edges WHERE relation = ? AND target_id = ?
`, string(rel), targetID).Scan(&count)
	return count, err
}

func (s *Store) readCounter(ctx context.Context, tx *sql.Tx, ct counterTarget, targetID int64) (int, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, ct.column, ct.table),
		targetID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	return count, err
}

// ---- scan helpers ----

func scanUser(scanner interface{ Scan(dest ...any) error }) (model.User, error) {
	var u model.User
	var nickname, bio, avatar sql.NullString
	var role int
	var created int64
	if err := scanner.Scan(&u.ID, &u.Username, &u.PasswordHash, &nickname, &bio, &avatar, &role, &u.FollowerCount, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	if nickname.Valid {
		u.Nickname = nickname.String
	}
	if bio.Valid {
		u.Bio = bio.String
	}
	if avatar.Valid {
		u.AvatarURL = avatar.String
	}
	u.Role = model.Role(role)
	u.CreatedAt = time.Unix(created, 0)
	return u, nil
}

func scanArticle(scanner interface{ Scan(dest ...any) error }) (model.Article, error) {
	var a model.Article
	var authorName sql.NullString
	var created int64
	var published sql.NullInt64
	if err := scanner.Scan(&a.ID, &a.AuthorID, &authorName, &a.Title, &a.Content, &a.Status, &a.LikeCount, &a.FavoriteCount, &a.CommentCount, &created, &published); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Article{}, store.ErrNotFound
		}
		return model.Article{}, err
	}
	if authorName.Valid {
		a.AuthorName = authorName.String
	}
	a.CreatedAt = time.Unix(created, 0)
	if published.Valid {
		t := time.Unix(published.Int64, 0)
		a.PublishedAt = &t
	}
	return a, nil
}

func scanComment(scanner interface{ Scan(dest ...any) error }) (model.Comment, error) {
	var c model.Comment
	var authorName sql.NullString
	var created int64
	if err := scanner.Scan(&c.ID, &c.ArticleID, &c.AuthorID, &authorName, &c.Content, &c.LikeCount, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Comment{}, store.ErrNotFound
		}
		return model.Comment{}, err
	}
	if authorName.Valid {
		c.AuthorName = authorName.String
	}
	c.CreatedAt = time.Unix(created, 0)
	return c, nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
