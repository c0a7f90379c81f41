package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func startPages(layout []FicheLayout) []int {
	out := make([]int, len(layout))
	for i, f := range layout {
		out[i] = f.StartPage
	}
	return out
}

func TestComputePageLayout(t *testing.T) {
	p1, p2, p3 := 4, 1, 7
	estimates := []FicheEstimate{{FicheID: "a", Pages: p1}, {FicheID: "b", Pages: p2}, {FicheID: "c", Pages: p3}}

	layout := ComputePageLayout(estimates, LayoutOptions{CoverPages: 1, TOCPages: 1})

	assert.Equal(t, []int{2, 2 + 1 + p1, 2 + 1 + p1 + 1 + p2}, startPages(layout))
	assert.Equal(t, []int{1, 2, 3}, []int{layout[0].Position, layout[1].Position, layout[2].Position})
	assert.Equal(t, 1+1+(1+p1)+(1+p2)+(1+p3), TotalPages(layout, LayoutOptions{CoverPages: 1, TOCPages: 1}))
}

func TestComputePageLayoutMultiPageTOC(t *testing.T) {
	layout := ComputePageLayout([]FicheEstimate{{Pages: 2}, {Pages: 3}}, LayoutOptions{CoverPages: 1, TOCPages: 3})
	assert.Equal(t, []int{4, 7}, startPages(layout))
}

func TestComputePageLayoutEstimatesAtLeastOnePage(t *testing.T) {
	estimates := []FicheEstimate{{FicheID: "missing", Pages: 0, Estimated: true}, {FicheID: "b", Pages: 2}}
	layout := ComputePageLayout(estimates, LayoutOptions{CoverPages: 1, TOCPages: 1})

	assert.Equal(t, []int{2, 4}, startPages(layout))
	assert.True(t, layout[0].Estimated)
	assert.Equal(t, 0, estimates[0].Pages, "input is not modified")
}

func TestComputePageLayoutEmpty(t *testing.T) {
	assert.Empty(t, ComputePageLayout(nil, LayoutOptions{CoverPages: 1, TOCPages: 1}))
}
