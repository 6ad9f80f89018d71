package toc

import "testing"

func TestBuild_NestingScenario(t *testing.T) {
	// Two roots; the first has a child that itself has a child.
	sections := []Section{
		{ID: "s0", Title: "Overview", Level: 1, OrderIndex: 0},
		{ID: "s1", Title: "Details", Level: 2, OrderIndex: 1},
		{ID: "s2", Title: "Fine Print", Level: 3, OrderIndex: 2},
		{ID: "s3", Title: "Summary", Level: 1, OrderIndex: 3},
	}

	roots := Build(sections)
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if roots[0].ID != "s0" || roots[1].ID != "s3" {
		t.Errorf("unexpected roots: %s, %s", roots[0].ID, roots[1].ID)
	}
	if len(roots[0].Children) != 1 || roots[0].Children[0].ID != "s1" {
		t.Fatalf("expected s1 under s0, got %+v", roots[0].Children)
	}
	if len(roots[0].Children[0].Children) != 1 || roots[0].Children[0].Children[0].ID != "s2" {
		t.Errorf("expected s2 under s1")
	}
	if len(roots[1].Children) != 0 {
		t.Errorf("expected s3 to have no children")
	}
}

func TestBuild_SiblingsAfterReturn(t *testing.T) {
	// Returning to a shallower level attaches to the correct ancestor.
	sections := []Section{
		{ID: "a", Level: 1, OrderIndex: 0},
		{ID: "b", Level: 2, OrderIndex: 1},
		{ID: "c", Level: 3, OrderIndex: 2},
		{ID: "d", Level: 2, OrderIndex: 3},
	}
	roots := Build(sections)
	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}
	children := roots[0].Children
	if len(children) != 2 || children[0].ID != "b" || children[1].ID != "d" {
		t.Errorf("expected b and d as siblings under a, got %+v", children)
	}
}

func TestBuild_OutOfOrderInputSorted(t *testing.T) {
	sections := []Section{
		{ID: "second", Level: 1, OrderIndex: 1},
		{ID: "first", Level: 1, OrderIndex: 0},
	}
	roots := Build(sections)
	if roots[0].ID != "first" || roots[1].ID != "second" {
		t.Errorf("expected order-index sorting, got %s, %s", roots[0].ID, roots[1].ID)
	}
}

func TestBuild_Empty(t *testing.T) {
	roots := Build(nil)
	if roots == nil || len(roots) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", roots)
	}
}

func TestBuild_ChildrenNeverNil(t *testing.T) {
	roots := Build([]Section{{ID: "a", Level: 1, OrderIndex: 0}})
	if roots[0].Children == nil {
		t.Error("leaf children must be an empty slice, not nil")
	}
}

func TestValidate_LevelGap(t *testing.T) {
	sections := []Section{
		{Title: "A", Level: 1, OrderIndex: 0},
		{Title: "B", Level: 3, OrderIndex: 1},
	}
	issues := Validate(sections)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue for level gap, got %d: %v", len(issues), issues)
	}
}

func TestValidate_OrderGap(t *testing.T) {
	sections := []Section{
		{Title: "A", Level: 1, OrderIndex: 0},
		{Title: "B", Level: 1, OrderIndex: 2},
	}
	issues := Validate(sections)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue for order gap, got %d: %v", len(issues), issues)
	}
}

func TestValidate_Clean(t *testing.T) {
	sections := []Section{
		{Title: "A", Level: 1, OrderIndex: 0},
		{Title: "B", Level: 2, OrderIndex: 1},
		{Title: "C", Level: 2, OrderIndex: 2},
	}
	if issues := Validate(sections); len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}

func TestMaxDepth(t *testing.T) {
	roots := Build([]Section{
		{ID: "a", Level: 1, OrderIndex: 0},
		{ID: "b", Level: 2, OrderIndex: 1},
		{ID: "c", Level: 3, OrderIndex: 2},
	})
	if d := MaxDepth(roots); d != 3 {
		t.Errorf("expected depth 3, got %d", d)
	}
	if d := MaxDepth(nil); d != 0 {
		t.Errorf("expected depth 0 for empty tree, got %d", d)
	}
}

func TestFromMarkdown(t *testing.T) {
	content := `---
title: Chapter 2
---
# Chapter 2 Orders

## Order Entry

### Message Layout

## Cancels
`
	entries := FromMarkdown(content, "ch2")
	if len(entries) != 2 {
		t.Fatalf("expected 2 top entries, got %d", len(entries))
	}
	if entries[0].Title != "Order Entry" || entries[1].Title != "Cancels" {
		t.Errorf("unexpected titles: %q, %q", entries[0].Title, entries[1].Title)
	}
	if len(entries[0].Children) != 1 || entries[0].Children[0].Title != "Message Layout" {
		t.Errorf("expected Message Layout nested under Order Entry")
	}
	if entries[0].ID != "ch2_0" {
		t.Errorf("expected chapter-derived IDs, got %q", entries[0].ID)
	}
}

func TestFromMarkdown_H1Excluded(t *testing.T) {
	entries := FromMarkdown("# Title Only\n\nbody\n", "c")
	if len(entries) != 0 {
		t.Errorf("h1 must not appear in outline, got %+v", entries)
	}
}
