package models

import "time"

// Comment is an append-only reply under a post, ordered by CreatedAt asc.
type Comment struct {
	ID                string
	PostID            string
	AuthorID          string
	AuthorDisplayName string
	Text              string
	CreatedAt         time.Time
}

// DecodeComment builds a Comment from raw record fields of a post's
// comments subcollection.
func DecodeComment(id, postID string, fields map[string]any, sentinel time.Time) Comment {
	return Comment{
		ID:                id,
		PostID:            postID,
		AuthorID:          stringField(fields, "userId"),
		AuthorDisplayName: stringField(fields, "userName"),
		Text:              stringField(fields, "text"),
		CreatedAt:         decodeTimestamp(fields["createdAt"], sentinel),
	}
}
