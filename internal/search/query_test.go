package search_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/models"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/search"
)

func TestMerge(t *testing.T) {
	draft := article("draft", "SEO draft")
	draft.Status = models.StatusDraft

	slots := [][]models.Record{
		{page("p1", "SEO page")},
		{draft, article("a1", "SEO article")},
		nil,
		{paper("r1", "SEO paper"), paper("r2", "SEO paper two")},
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "all", limit: 10, want: []string{"p1", "a1", "r1", "r2"}},
		{name: "truncated mid collection", limit: 3, want: []string{"p1", "a1", "r1"}},
		{name: "zero", limit: 0, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := search.Merge(slots, tt.limit)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			require.Equal(t, tt.want, ids)
		})
	}
}
