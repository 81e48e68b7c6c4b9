package bench

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/phrazzld/pgstmt/internal/store"
	"github.com/phrazzld/pgstmt/pkg/client"
)

// Workload names accepted by Suite.Workload.
const (
	WorkloadTrivial       = "trivial"
	WorkloadMediumComplex = "medium_complex"
	WorkloadAssociations  = "associations"
	workloadInsertPrefix  = "insert_"
)

// ErrUnknownWorkload is returned for workload names Suite does not know.
var ErrUnknownWorkload = errors.New("unknown workload")

// Suite runs the benchmark query patterns against one DBTX.
//
// Each fixed query has its own call-site Stmt, so a Suite is not safe for
// concurrent use. Give every goroutine its own Suite, ideally on its own
// *sql.Conn so the prepared handles stay on the connection that made them.
type Suite struct {
	db     store.DBTX
	logger *slog.Logger

	users          *client.Stmt
	usersWithPosts *client.Stmt

	// inLists holds the IN(...) statements, whose text depends on how many
	// ids are bound. Longer id lists are split into chunks of inListLimit.
	inLists     *client.Registry
	inListLimit int
}

// NewSuite returns a Suite bound to db. If logger is nil, slog.Default() is used.
func NewSuite(db store.DBTX, logger *slog.Logger) *Suite {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "bench_suite"))
	return &Suite{
		db:             db,
		logger:         logger,
		users:          client.NewStmt(selectUsersSQL),
		usersWithPosts: client.NewStmt(selectUsersWithPostsSQL),
		inLists:        client.NewRegistry(db, logger),
		inListLimit:    MaxParams,
	}
}

// WorkloadName returns the name of the insert workload for n rows.
func WorkloadName(insertSize int) string {
	return workloadInsertPrefix + strconv.Itoa(insertSize)
}

// WorkloadNames lists every workload, with one insert workload per size.
func WorkloadNames(insertSizes []int) []string {
	names := []string{WorkloadTrivial, WorkloadMediumComplex}
	for _, n := range insertSizes {
		names = append(names, WorkloadName(n))
	}
	return append(names, WorkloadAssociations)
}

// Workload returns a function running one iteration of the named workload.
func (s *Suite) Workload(name string) (func(ctx context.Context) error, error) {
	switch name {
	case WorkloadTrivial:
		return func(ctx context.Context) error {
			_, err := s.TrivialQuery(ctx)
			return err
		}, nil
	case WorkloadMediumComplex:
		return func(ctx context.Context) error {
			_, err := s.MediumComplexQuery(ctx)
			return err
		}, nil
	case WorkloadAssociations:
		return func(ctx context.Context) error {
			_, err := s.LoadAssociations(ctx)
			return err
		}, nil
	}

	if size, ok := strings.CutPrefix(name, workloadInsertPrefix); ok {
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 || n > MaxInsertRows {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWorkload, name)
		}
		return func(ctx context.Context) error {
			_, err := s.Insert(ctx, n)
			return err
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownWorkload, name)
}

// Statements reports which call-site statements hold a prepared handle.
func (s *Suite) Statements() map[string]bool {
	return map[string]bool{
		s.users.Query():          s.users.Prepared(),
		s.usersWithPosts.Query(): s.usersWithPosts.Prepared(),
	}
}

// RegistryStats returns the counters of the IN-list statement registry.
func (s *Suite) RegistryStats() client.RegistryStats {
	return s.inLists.Stats()
}

// TrivialQuery loads every user.
func (s *Suite) TrivialQuery(ctx context.Context) ([]User, error) {
	stmt, err := s.users.Prepare(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("trivial query: %w", err)
	}
	return collectUsers(ctx, stmt)
}

// MediumComplexQuery loads users joined with their posts, one UserPost per
// result row.
func (s *Suite) MediumComplexQuery(ctx context.Context) ([]UserPost, error) {
	stmt, err := s.usersWithPosts.Prepare(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("medium complex query: %w", err)
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("medium complex query: %w: %w", client.ErrExecutionFailed, err)
	}
	defer func() { _ = rows.Close() }()

	var out []UserPost
	for rows.Next() {
		var (
			up         UserPost
			postID     *int
			postUserID *int
			title      *string
			body       *string
		)
		if err := rows.Scan(
			&up.User.ID, &up.User.Name, &up.User.HairColor,
			&postID, &postUserID, &title, &body,
		); err != nil {
			return nil, fmt.Errorf("medium complex query: scan: %w", err)
		}
		if postID != nil {
			up.Post = &Post{ID: *postID, Body: body}
			if postUserID != nil {
				up.Post.UserID = *postUserID
			}
			if title != nil {
				up.Post.Title = *title
			}
		}
		out = append(out, up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("medium complex query: %w: %w", client.ErrExecutionFailed, err)
	}
	return out, nil
}

// Insert adds n users with a single multi-row INSERT and returns the number
// of rows affected. The statement text differs per n and is sent unprepared.
func (s *Suite) Insert(ctx context.Context, n int) (int64, error) {
	query, err := BuildInsertUsers(n)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, insertUsersArgs(n)...)
	if err != nil {
		return 0, fmt.Errorf("insert %d users: %w: %w", n, client.ErrExecutionFailed, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert %d users: %w", n, err)
	}
	return affected, nil
}

// LoadAssociations loads all users, then their posts, then the comments on
// those posts, issuing one query per level, and assembles the graph. Users
// and posts keep the order the database returned them in.
func (s *Suite) LoadAssociations(ctx context.Context) ([]UserWithPosts, error) {
	users, err := s.TrivialQuery(ctx)
	if err != nil {
		return nil, err
	}

	userIDs := make([]any, len(users))
	for i, u := range users {
		userIDs[i] = u.ID
	}
	posts, err := s.loadPosts(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	postIDs := make([]any, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}
	comments, err := s.loadComments(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	return assemble(users, posts, comments)
}

func (s *Suite) loadPosts(ctx context.Context, userIDs []any) ([]Post, error) {
	posts, err := queryIn(ctx, s, postsByUserPrefix, userIDs, func(row client.Row) (Post, error) {
		var p Post
		err := row.Scan(&p.ID, &p.Title, &p.UserID, &p.Body)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	return posts, nil
}

func (s *Suite) loadComments(ctx context.Context, postIDs []any) ([]Comment, error) {
	comments, err := queryIn(ctx, s, commentsByPostPrefix, postIDs, func(row client.Row) (Comment, error) {
		var c Comment
		err := row.Scan(&c.ID, &c.PostID, &c.Text)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return comments, nil
}

// queryIn runs the IN(...) query built from prefix once per chunk of ids,
// keeping each chunk within the bind parameter limit, and scans every row.
// Rows come back chunk by chunk in the order of ids.
func queryIn[T any](ctx context.Context, s *Suite, prefix string, ids []any, scan client.RowScanner[T]) ([]T, error) {
	var out []T
	for _, part := range chunk(ids, s.inListLimit) {
		stmt, err := s.inLists.Prepare(ctx, BuildInList(prefix, len(part)))
		if err != nil {
			return nil, err
		}
		if out, err = scanAll(ctx, stmt, part, scan, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanAll[T any](ctx context.Context, stmt *sql.Stmt, args []any, scan client.RowScanner[T], out []T) ([]T, error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", client.ErrExecutionFailed, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", client.ErrExecutionFailed, err)
	}
	return out, nil
}

// chunk splits ids into consecutive slices of at most size elements.
func chunk(ids []any, size int) [][]any {
	if size <= 0 {
		size = len(ids)
	}
	var parts [][]any
	for len(ids) > size {
		parts = append(parts, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		parts = append(parts, ids)
	}
	return parts
}

// assemble nests comments under posts and posts under users. A child whose
// parent is missing means the three reads were inconsistent.
func assemble(users []User, posts []Post, comments []Comment) ([]UserWithPosts, error) {
	postIndex := make(map[int]int, len(posts))
	withComments := make([]PostWithComments, len(posts))
	for i, p := range posts {
		postIndex[p.ID] = i
		withComments[i] = PostWithComments{Post: p, Comments: []Comment{}}
	}
	for _, c := range comments {
		i, ok := postIndex[c.PostID]
		if !ok {
			return nil, store.NewStoreError("comment", "load", fmt.Sprintf("post %d not loaded", c.PostID), store.ErrNotFound)
		}
		withComments[i].Comments = append(withComments[i].Comments, c)
	}

	userIndex := make(map[int]int, len(users))
	out := make([]UserWithPosts, len(users))
	for i, u := range users {
		userIndex[u.ID] = i
		out[i] = UserWithPosts{User: u, Posts: []PostWithComments{}}
	}
	for _, p := range withComments {
		i, ok := userIndex[p.Post.UserID]
		if !ok {
			return nil, store.NewStoreError("post", "load", fmt.Sprintf("user %d not loaded", p.Post.UserID), store.ErrNotFound)
		}
		out[i].Posts = append(out[i].Posts, p)
	}
	return out, nil
}

// Close releases the statements this suite prepared. The suite must not be
// used afterwards.
func (s *Suite) Close(ctx context.Context) error {
	var errs []error
	for _, stmt := range []*client.Stmt{s.users, s.usersWithPosts} {
		if !stmt.Prepared() {
			continue
		}
		// Resolving a prepared entry is a cache read, not a round-trip.
		handle, err := stmt.Prepare(ctx, s.db)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := handle.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.inLists.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func collectUsers(ctx context.Context, stmt *sql.Stmt) ([]User, error) {
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w: %w", client.ErrExecutionFailed, err)
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.HairColor); err != nil {
			return nil, fmt.Errorf("load users: scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load users: %w: %w", client.ErrExecutionFailed, err)
	}
	return users, nil
}
