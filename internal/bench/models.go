package bench

// User is a row of the users table.
type User struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	HairColor *string `json:"hair_color,omitempty"`
}

// Post is a row of the posts table.
type Post struct {
	ID     int     `json:"id"`
	UserID int     `json:"user_id"`
	Title  string  `json:"title"`
	Body   *string `json:"body,omitempty"`
}

// Comment is a row of the comments table.
type Comment struct {
	ID     int    `json:"id"`
	PostID int    `json:"post_id"`
	Text   string `json:"text"`
}

// UserPost is one row of the users LEFT JOIN posts query. Post is nil for
// users without posts.
type UserPost struct {
	User User  `json:"user"`
	Post *Post `json:"post,omitempty"`
}

// PostWithComments is a post and the comments that reference it.
type PostWithComments struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

// UserWithPosts is a user and their posts, each with its comments.
type UserWithPosts struct {
	User  User               `json:"user"`
	Posts []PostWithComments `json:"posts"`
}
