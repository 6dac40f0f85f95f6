package handlers

import "testing"

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || limit != 12 {
		t.Fatalf("expected page=1 limit=12, got page=%d limit=%d", page, limit)
	}
}

func TestParsePaginationParamsRejectsBadValues(t *testing.T) {
	for _, tc := range [][2]string{{"0", ""}, {"-1", ""}, {"abc", ""}, {"", "0"}, {"", "nope"}} {
		if _, _, err := parsePaginationParams(tc[0], tc[1], 10); err == nil {
			t.Fatalf("expected error for page=%q limit=%q", tc[0], tc[1])
		}
	}
}

func TestBuildPaginationMiddlePage(t *testing.T) {
	pagination := buildPagination(2, 10, 35)
	if _, ok := pagination["next"]; !ok {
		t.Fatal("expected next page on page 2 of 35 items")
	}
	if _, ok := pagination["prev"]; !ok {
		t.Fatal("expected prev page on page 2")
	}
}

func TestBuildPaginationEdges(t *testing.T) {
	first := buildPagination(1, 10, 35)
	if _, ok := first["prev"]; ok {
		t.Fatal("first page must not have prev")
	}

	last := buildPagination(4, 10, 35)
	if _, ok := last["next"]; ok {
		t.Fatal("last page must not have next")
	}

	exact := buildPagination(1, 10, 10)
	if _, ok := exact["next"]; ok {
		t.Fatal("no next when page covers the whole set")
	}
}
