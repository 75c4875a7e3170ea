package post

import "time"

// AnonymousAuthor is the display name stored when the identity carries no name.
const AnonymousAuthor = "Anonymous Developer"

// Post is the persistent blog post document. AuthorID is set once at creation
// and is the only field ownership checks compare against.
type Post struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	Author    string    `json:"author" bson:"author"`
	AuthorID  string    `json:"authorId" bson:"authorId"`
	Tags      []string  `json:"tags" bson:"tags"`
	Date      time.Time `json:"date" bson:"date"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Changes is the set of fields an owner may update. Nil fields are left untouched.
type Changes struct {
	Title   *string
	Content *string
	Tags    *[]string
}

// Empty reports whether no field is set.
func (c Changes) Empty() bool {
	return c.Title == nil && c.Content == nil && c.Tags == nil
}

// Summary is the list projection of a post.
type Summary struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Excerpt string   `json:"excerpt"`
	Date    string   `json:"date"`
	Tags    []string `json:"tags"`
	Author  string   `json:"author"`
}

// Detail is the single-post projection; Content is returned as stored.
type Detail struct {
	Summary
	Content string `json:"content"`
}
