// Package models defines the typed projections of remote records: posts,
// comments, emergency alerts and user profiles, plus the pure decoding
// functions that turn raw snapshot fields into them.
package models

import (
	"strings"
	"time"
)

// Remote collection names. The backend predates this client; the names are
// part of its historical schema and are not translated.
const (
	CollectionPosts         = "Delitos"
	CollectionUsers         = "Users"
	CollectionAlertsDurable = "AlertasEmergencia"
	PathAlertsFast          = "alertas_emergencia"
)

// SubcollectionLikes and SubcollectionComments live under a post document.
const (
	SubcollectionLikes    = "likes"
	SubcollectionComments = "comments"
)

// MediaKind tags a post's attached media.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaRef points at a single uploaded media object.
type MediaRef struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// Post is a community incident report shown in the main feed.
type Post struct {
	ID                string
	CreatedAt         time.Time
	Title             string
	Body              string
	Media             *MediaRef
	AuthorID          string
	AuthorDisplayName string
	LikeCount         int
	CommentCount      int
	LocationLabel     string
}

// Anonymous reports carry no author id.
func (p Post) Anonymous() bool { return p.AuthorID == "" }

// DecodePost builds a Post from raw record fields. Field fallback chains
// (new name first, legacy name second):
//
//	title: "encabezado" → "tipo"
//	body:  "cuerpo" → "descripcion"
//	media: "mediaUrl"+"mediaType" → first entry of legacy "mediaUrls"
//
// A malformed or absent timestamp decodes to the sentinel instant.
func DecodePost(id string, fields map[string]any, sentinel time.Time) Post {
	p := Post{
		ID:                id,
		CreatedAt:         decodeTimestamp(fields["timestamp"], sentinel),
		Title:             stringField(fields, "encabezado", "tipo"),
		Body:              stringField(fields, "cuerpo", "descripcion"),
		AuthorID:          stringField(fields, "userId"),
		AuthorDisplayName: stringField(fields, "userName"),
		LikeCount:         intField(fields, "likesCount"),
		CommentCount:      intField(fields, "commentsCount"),
		LocationLabel:     stringField(fields, "ubicacion"),
		Media:             decodeMedia(fields),
	}
	return p
}

func decodeMedia(fields map[string]any) *MediaRef {
	url := stringField(fields, "mediaUrl")
	if url == "" {
		// legacy multi-URL records collapse to their first entry
		if urls, ok := fields["mediaUrls"].([]any); ok && len(urls) > 0 {
			url, _ = urls[0].(string)
		}
	}
	if url == "" {
		return nil
	}
	return &MediaRef{URL: url, Kind: mediaKindFor(url, stringField(fields, "mediaType"))}
}

func mediaKindFor(url, declared string) MediaKind {
	if declared == string(MediaVideo) {
		return MediaVideo
	}
	if declared == string(MediaImage) {
		return MediaImage
	}
	lower := strings.ToLower(url)
	if strings.Contains(lower, ".mp4") || strings.Contains(lower, ".mov") {
		return MediaVideo
	}
	return MediaImage
}

// PostDraft is the user input for a new report.
type PostDraft struct {
	Title    string
	Body     string
	Media    *MediaRef
	Location string
}

// Fields renders the draft as wire fields for the posts collection, using
// the current schema names. CreatedAt is assigned by the store.
func (d PostDraft) Fields(authorID, authorName string, now time.Time) map[string]any {
	fields := map[string]any{
		"encabezado":    d.Title,
		"cuerpo":        d.Body,
		"timestamp":     now,
		"likesCount":    0,
		"commentsCount": 0,
	}
	if d.Media != nil {
		fields["mediaUrl"] = d.Media.URL
		fields["mediaType"] = string(d.Media.Kind)
	}
	if d.Location != "" {
		fields["ubicacion"] = d.Location
	}
	if authorID != "" {
		fields["userId"] = authorID
		fields["userName"] = authorName
	}
	return fields
}
