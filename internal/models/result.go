package models

import (
	"strings"
	"time"
)

// SearchResult is the projection every content variant maps into.
type SearchResult struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Excerpt string     `json:"excerpt"`
	URL     string     `json:"url"`
	Kind    Kind       `json:"kind"`
	Image   string     `json:"image,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
}

// URLFor derives the public path of a record from its kind and slug.
func URLFor(kind Kind, slug string) string {
	slug = strings.Trim(slug, "/")
	if kind == KindPage {
		return "/" + slug
	}
	return "/" + string(kind) + "/" + slug
}
