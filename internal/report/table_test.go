package report

import "testing"

func TestTableAlignsColumns(t *testing.T) {
	tbl := newTable("Metric", "Classes", "Days").alignRight(1, 2)
	tbl.add("Need", "2", "0.4")
	tbl.add("Bunks left", "unlimited", "-")

	lines := tbl.lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Metric        Classes  Days" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Need                2   0.4" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Bunks left  unlimited     -" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTableShortRowsAndTrailingSpace(t *testing.T) {
	tbl := newTable()
	tbl.add("Bunks left", "3")
	tbl.add("Need")
	lines := tbl.lines()
	if lines[0] != "Bunks left  3" || lines[1] != "Need" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestTableWideRunes(t *testing.T) {
	tbl := newTable()
	tbl.add("日本", "x")
	tbl.add("ab", "y")
	lines := tbl.lines()
	if lines[1] != "ab    y" {
		t.Fatalf("unexpected padding %q", lines[1])
	}
}

func TestTableEmpty(t *testing.T) {
	if lines := newTable().lines(); lines != nil {
		t.Fatalf("expected no lines, got %v", lines)
	}
}
