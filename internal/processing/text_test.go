package processing_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/processing"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain text", input: "Hello   world\n", want: "Hello world"},
		{name: "paragraphs", input: "<p>First</p><p>Second</p>", want: "First Second"},
		{name: "entities", input: "<b>Fish &amp; chips</b>", want: "Fish & chips"},
		{name: "script dropped", input: "<p>Visible</p><script>alert(1)</script>", want: "Visible"},
		{name: "line breaks", input: "one<br>two", want: "one two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.StripMarkup(tt.input))
		})
	}
}

func TestExcerpt(t *testing.T) {
	require.Equal(t, "short", processing.Excerpt("short", 150))
	require.Equal(t, "abc...", processing.Excerpt("abcdef", 3))
	require.Equal(t, "ab...", processing.Excerpt("ab cdef", 3))

	long := strings.Repeat("я", 200)
	got := processing.Excerpt(long, 150)
	require.Equal(t, strings.Repeat("я", 150)+"...", got)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Hello World", want: "hello-world"},
		{title: "  SEO: 10 tips & tricks!  ", want: "seo-10-tips-tricks"},
		{title: "Über Café", want: "über-café"},
		{title: "---", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			require.Equal(t, tt.want, processing.Slugify(tt.title))
		})
	}
}

func TestBuildEventID(t *testing.T) {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	id1 := processing.BuildEventID("blog", "42", "upsert", ts)
	id2 := processing.BuildEventID("blog", "42", "upsert", ts)
	require.NotEmpty(t, id1)
	require.Equal(t, id1, id2)
	require.NotEqual(t, id1, processing.BuildEventID("blog", "42", "delete", ts))
}
