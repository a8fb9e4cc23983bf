package domain

import (
	"fmt"
	"strings"
)

// ContentKind tags the entity an embedding belongs to.
type ContentKind string

const (
	ContentVideo ContentKind = "video"
	ContentPost  ContentKind = "post"
	ContentBlog  ContentKind = "blog"
	ContentUser  ContentKind = "user"
)

// SearchableKinds are the kinds a text query can match.
var SearchableKinds = []ContentKind{ContentVideo, ContentPost, ContentBlog}

func (k ContentKind) Searchable() bool {
	for _, s := range SearchableKinds {
		if k == s {
			return true
		}
	}
	return false
}

// ParseContentKinds parses "video,post" style lists. Empty input means every searchable kind.
func ParseContentKinds(raw string) ([]ContentKind, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "all" {
		return append([]ContentKind(nil), SearchableKinds...), nil
	}

	seen := make(map[ContentKind]struct{})
	var kinds []ContentKind
	for _, part := range strings.Split(raw, ",") {
		k := ContentKind(strings.ToLower(strings.TrimSpace(part)))
		if !k.Searchable() {
			return nil, fmt.Errorf("unknown content kind %q", part)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Embeddable is implemented by every entity that owns an embedding: *Video, *Post and *Blog.
type Embeddable interface {
	ContentKind() ContentKind
	EntityID() uint64
}

type Post struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Title    string `gorm:"column:title;type:text" json:"title"`
	Content  string `gorm:"column:content;type:text" json:"content"`
	AuthorID uint   `gorm:"column:author_id" json:"author_id"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) ContentKind() ContentKind { return ContentPost }
func (p *Post) EntityID() uint64         { return p.ID }

type Blog struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Title    string `gorm:"column:title;type:text" json:"title"`
	Content  string `gorm:"column:content;type:text" json:"content"`
	AuthorID uint   `gorm:"column:author_id" json:"author_id"`
}

func (Blog) TableName() string { return "blogs" }

func (b *Blog) ContentKind() ContentKind { return ContentBlog }
func (b *Blog) EntityID() uint64         { return b.ID }

// SearchResult is one ranked hit of a semantic search.
type SearchResult struct {
	Kind  ContentKind `json:"kind"`
	ID    uint64      `json:"id"`
	Title string      `json:"title"`
	Score float64     `json:"score"`
}
