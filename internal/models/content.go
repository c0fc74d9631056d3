package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/processing"
)

// Kind tags a content collection. The value doubles as the URL prefix.
type Kind string

const (
	KindPage      Kind = "page"
	KindArticle   Kind = "blog"
	KindPortfolio Kind = "portfolio"
	KindResearch  Kind = "research"
)

// Kinds lists every collection in result precedence order.
var Kinds = []Kind{KindPage, KindArticle, KindPortfolio, KindResearch}

// Status is the record visibility flag.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ExcerptLength is the number of body characters used when a record has no summary.
const ExcerptLength = 150

// ErrUnknownKind is returned for kinds outside Kinds.
var ErrUnknownKind = errors.New("unknown content kind")

// Record is implemented by every content variant.
type Record interface {
	Kind() Kind
	RecordID() string
	Published() bool
	Result() SearchResult
}

// Page is a static site page.
type Page struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	MetaTitle       string    `json:"meta_title,omitempty"`
	MetaDescription string    `json:"meta_description,omitempty"`
	Slug            string    `json:"slug"`
	FeaturedImage   string    `json:"featured_image,omitempty"`
	Status          Status    `json:"status"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Article is a blog post.
type Article struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Excerpt         string    `json:"excerpt,omitempty"`
	MetaDescription string    `json:"meta_description,omitempty"`
	Slug            string    `json:"slug"`
	FeaturedImage   string    `json:"featured_image,omitempty"`
	Status          Status    `json:"status"`
	PublishedAt     *Date     `json:"published_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PortfolioItem is a showcased project.
type PortfolioItem struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Slug           string    `json:"slug"`
	ImageURL       string    `json:"image_url,omitempty"`
	Status         Status    `json:"status"`
	CompletionDate *Date     `json:"completion_date,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ResearchPaper is a published paper with an abstract.
type ResearchPaper struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Abstract        string    `json:"abstract"`
	Slug            string    `json:"slug"`
	ImageURL        string    `json:"image_url,omitempty"`
	Status          Status    `json:"status"`
	PublicationDate *Date     `json:"publication_date,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p *Page) Kind() Kind       { return KindPage }
func (p *Page) RecordID() string { return p.ID }
func (p *Page) Published() bool  { return p.Status == StatusPublished }

func (p *Page) Result() SearchResult {
	date := p.UpdatedAt
	return SearchResult{
		ID:      p.ID,
		Title:   p.Title,
		Excerpt: summarize(p.MetaDescription, p.Content, p.Title),
		URL:     URLFor(KindPage, p.Slug),
		Kind:    KindPage,
		Image:   p.FeaturedImage,
		Date:    nonZero(&date),
	}
}

func (a *Article) Kind() Kind       { return KindArticle }
func (a *Article) RecordID() string { return a.ID }
func (a *Article) Published() bool  { return a.Status == StatusPublished }

func (a *Article) Result() SearchResult {
	return SearchResult{
		ID:      a.ID,
		Title:   a.Title,
		Excerpt: summarize(a.Excerpt, a.Content, a.Title),
		URL:     URLFor(KindArticle, a.Slug),
		Kind:    KindArticle,
		Image:   a.FeaturedImage,
		Date:    a.PublishedAt.ptr(),
	}
}

func (p *PortfolioItem) Kind() Kind       { return KindPortfolio }
func (p *PortfolioItem) RecordID() string { return p.ID }
func (p *PortfolioItem) Published() bool  { return p.Status == StatusPublished }

func (p *PortfolioItem) Result() SearchResult {
	return SearchResult{
		ID:      p.ID,
		Title:   p.Title,
		Excerpt: summarize(p.Description, "", p.Title),
		URL:     URLFor(KindPortfolio, p.Slug),
		Kind:    KindPortfolio,
		Image:   p.ImageURL,
		Date:    p.CompletionDate.ptr(),
	}
}

func (r *ResearchPaper) Kind() Kind       { return KindResearch }
func (r *ResearchPaper) RecordID() string { return r.ID }
func (r *ResearchPaper) Published() bool  { return r.Status == StatusPublished }

func (r *ResearchPaper) Result() SearchResult {
	return SearchResult{
		ID:      r.ID,
		Title:   r.Title,
		Excerpt: summarize(r.Abstract, "", r.Title),
		URL:     URLFor(KindResearch, r.Slug),
		Kind:    KindResearch,
		Image:   r.ImageURL,
		Date:    r.PublicationDate.ptr(),
	}
}

// SearchFields returns the text fields a lookup matches the term against.
func SearchFields(kind Kind) []string {
	switch kind {
	case KindPage:
		return []string{"title", "content", "meta_title", "meta_description"}
	case KindArticle:
		return []string{"title", "content", "excerpt", "meta_description"}
	case KindPortfolio:
		return []string{"title", "description"}
	case KindResearch:
		return []string{"title", "abstract"}
	}
	return nil
}

// DateField names the chronological field used as a collection's default order.
func DateField(kind Kind) string {
	switch kind {
	case KindPage:
		return "updated_at"
	case KindArticle:
		return "published_at"
	case KindPortfolio:
		return "completion_date"
	case KindResearch:
		return "publication_date"
	}
	return ""
}

// Valid reports whether kind is one of Kinds.
func (k Kind) Valid() bool {
	return SearchFields(k) != nil
}

// ParseKind converts a raw tag into a Kind.
func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
	return k, nil
}

// New returns an empty record of the given kind.
func New(kind Kind) (Record, error) {
	switch kind {
	case KindPage:
		return &Page{}, nil
	case KindArticle:
		return &Article{}, nil
	case KindPortfolio:
		return &PortfolioItem{}, nil
	case KindResearch:
		return &ResearchPaper{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Decode unmarshals raw JSON into the variant selected by kind.
func Decode(kind Kind, raw []byte) (Record, error) {
	rec, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", kind, err)
	}
	return rec, nil
}

func summarize(summary, body, title string) string {
	if s := processing.StripMarkup(summary); s != "" {
		return s
	}
	if b := processing.StripMarkup(body); b != "" {
		return processing.Excerpt(b, ExcerptLength)
	}
	return title
}

func nonZero(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	out := t.UTC()
	return &out
}
