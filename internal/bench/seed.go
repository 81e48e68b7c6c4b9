package bench

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/pgstmt/internal/platform/postgres"
	"github.com/phrazzld/pgstmt/internal/store"
	"github.com/phrazzld/pgstmt/pkg/client"
)

// SeedConfig sizes the dataset written by Seed.
type SeedConfig struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
}

// SeedStats counts the rows Seed wrote.
type SeedStats struct {
	Users    int `json:"users"`
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
}

const truncateSQL = "TRUNCATE comments, posts, users RESTART IDENTITY CASCADE"

type newUser struct {
	Name      string
	HairColor *string
}

type newPost struct {
	UserID int
	Title  string
	Body   *string
}

type newComment struct {
	postID int
	text   string
}

// Params implements client.Params.
func (c newComment) Params() []any { return []any{c.postID, c.text} }

func scanID(row client.Row) (int, error) {
	var id int
	err := row.Scan(&id)
	return id, err
}

// Seed empties the benchmark tables and fills them with cfg.Users users,
// each with cfg.PostsPerUser posts carrying cfg.CommentsPerPost comments.
// Everything happens in one transaction; on error nothing is written.
func Seed(ctx context.Context, db store.TxBeginner, cfg SeedConfig, logger *slog.Logger) (SeedStats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var stats SeedStats
	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, truncateSQL); err != nil {
			return store.NewStoreError("users", "seed", "truncate failed", postgres.MapError(err))
		}

		// One entry per statement, all bound to this transaction.
		insertUser := client.NewQuery[newUser, int](
			"INSERT INTO users (name, hair_color) VALUES ($1, $2) RETURNING id", scanID)
		insertPost := client.NewQuery[newPost, int](
			"INSERT INTO posts (user_id, title, body) VALUES ($1, $2, $3) RETURNING id", scanID)
		insertComment := client.NewExec[newComment](
			"INSERT INTO comments (post_id, text) VALUES ($1, $2)")

		for u := 0; u < cfg.Users; u++ {
			userID, err := insertUser.One(ctx, tx, newUser{
				Name:      fmt.Sprintf("User %d", u),
				HairColor: hairColor(u),
			})
			if err != nil {
				return store.NewStoreError("user", "seed", "insert failed", postgres.MapError(err))
			}
			stats.Users++

			for p := 0; p < cfg.PostsPerUser; p++ {
				postID, err := insertPost.One(ctx, tx, newPost{
					UserID: userID,
					Title:  fmt.Sprintf("Post %d by user %d", p, userID),
					Body:   postBody(p),
				})
				if err != nil {
					return store.NewStoreError("post", "seed", "insert failed", postgres.MapError(err))
				}
				stats.Posts++

				for c := 0; c < cfg.CommentsPerPost; c++ {
					if _, err := insertComment.Exec(ctx, tx, newComment{
						postID: postID,
						text:   fmt.Sprintf("Comment %d on post %d", c, postID),
					}); err != nil {
						return store.NewStoreError("comment", "seed", "insert failed", postgres.MapError(err))
					}
					stats.Comments++
				}
			}
		}
		return nil
	})
	if err != nil {
		return SeedStats{}, err
	}

	logger.Info("benchmark data seeded",
		slog.Int("users", stats.Users),
		slog.Int("posts", stats.Posts),
		slog.Int("comments", stats.Comments))
	return stats, nil
}

// hairColor leaves every other user without one so the NULL path is read.
func hairColor(i int) *string {
	if i%2 == 1 {
		return nil
	}
	c := "black"
	return &c
}

func postBody(i int) *string {
	if i%3 == 2 {
		return nil
	}
	b := fmt.Sprintf("Body of post %d", i)
	return &b
}
