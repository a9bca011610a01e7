package result

import (
	"testing"

	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/stage"
)

func TestEmpty(t *testing.T) {
	p := Empty(2, 12)
	if p.Items == nil || len(p.Items) != 0 {
		t.Errorf("Items = %v, want empty non-nil", p.Items)
	}
	if p.TotalCount != 0 || p.Stage != stage.None {
		t.Errorf("got total=%d stage=%q", p.TotalCount, p.Stage)
	}
	if p.Page != 2 || p.PageSize != 12 {
		t.Errorf("paging = %d/%d", p.Page, p.PageSize)
	}
	if _, ok := p.Focal(); ok {
		t.Error("Focal() ok = true on empty page")
	}
}

func TestPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 12, 0},
		{1, 12, 1},
		{12, 12, 1},
		{13, 12, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		p := Page{TotalCount: tt.total, PageSize: tt.size}
		if got := p.Pages(); got != tt.want {
			t.Errorf("Pages(total=%d, size=%d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestFocal(t *testing.T) {
	p := Page{Items: []catalog.Item{{ID: "a"}, {ID: "b"}}}
	it, ok := p.Focal()
	if !ok || it.ID != "a" {
		t.Errorf("Focal() = %q, %v", it.ID, ok)
	}
}

func TestEmptyAugmentation(t *testing.T) {
	a := EmptyAugmentation()
	if a.Recommendations == nil || a.Comparisons == nil {
		t.Error("sequences must be non-nil")
	}
}
