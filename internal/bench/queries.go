package bench

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	selectUsersSQL = "SELECT id, name, hair_color FROM users"

	selectUsersWithPostsSQL = "SELECT u.id, u.name, u.hair_color, p.id, p.user_id, p.title, p.body " +
		"FROM users AS u LEFT JOIN posts AS p ON u.id = p.user_id"

	insertUsersPrefix = "INSERT INTO users (name, hair_color) VALUES"

	postsByUserPrefix = "SELECT id, title, user_id, body FROM posts WHERE user_id IN("

	commentsByPostPrefix = "SELECT id, post_id, text FROM comments WHERE post_id IN("
)

const (
	// MaxParams is the most positional parameters Postgres binds in one
	// statement.
	MaxParams = 65535

	// MaxInsertRows is the largest insert BuildInsertUsers builds, at two
	// parameters per row.
	MaxInsertRows = MaxParams / 2
)

// BuildInsertUsers returns a single INSERT with n value groups and 2n
// positional parameters: VALUES ($1, $2), ($3, $4), ...
func BuildInsertUsers(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("insert size must be positive, got %d", n)
	}
	if n > MaxInsertRows {
		return "", fmt.Errorf("insert size %d exceeds %d rows", n, MaxInsertRows)
	}

	var b strings.Builder
	b.Grow(len(insertUsersPrefix) + n*14)
	b.WriteString(insertUsersPrefix)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(" ($")
		b.WriteString(strconv.Itoa(2*i + 1))
		b.WriteString(", $")
		b.WriteString(strconv.Itoa(2*i + 2))
		b.WriteByte(')')
	}
	return b.String(), nil
}

// BuildInList appends n comma-separated placeholders and a closing
// parenthesis to prefix, which must end in "IN(".
func BuildInList(prefix string, n int) string {
	var b strings.Builder
	b.Grow(len(prefix) + n*4 + 1)
	b.WriteString(prefix)
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteByte(',')
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(i))
	}
	b.WriteByte(')')
	return b.String()
}

// insertUsersArgs returns the 2n arguments matching BuildInsertUsers(n).
func insertUsersArgs(n int) []any {
	hairColor := "hair_color"
	args := make([]any, 0, 2*n)
	for i := 0; i < n; i++ {
		args = append(args, fmt.Sprintf("User %d", i), hairColor)
	}
	return args
}
