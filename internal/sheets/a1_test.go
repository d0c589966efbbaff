package sheets

import "testing"

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		ref     string
		col     int
		row     int
		wantErr bool
	}{
		{"A1", 0, 1, false},
		{"E7", 4, 7, false},
		{"L20", 11, 20, false},
		{"AA3", 26, 3, false},
		{"", 0, 0, true},
		{"7", 0, 0, true},
		{"A", 0, 0, true},
		{"A0", 0, 0, true},
		{"a1", 0, 0, true},
	}
	for _, tt := range tests {
		col, row, err := ParseCellRef(tt.ref)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCellRef(%q) should fail", tt.ref)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCellRef(%q): %v", tt.ref, err)
			continue
		}
		if col != tt.col || row != tt.row {
			t.Errorf("ParseCellRef(%q) = (%d, %d), want (%d, %d)", tt.ref, col, row, tt.col, tt.row)
		}
	}
}

func TestParseRangeStart(t *testing.T) {
	col, row, err := ParseRangeStart("H5:L5")
	if err != nil {
		t.Fatalf("ParseRangeStart: %v", err)
	}
	if col != 7 || row != 5 {
		t.Errorf("ParseRangeStart(H5:L5) = (%d, %d), want (7, 5)", col, row)
	}

	col, row, err = ParseRangeStart("B3")
	if err != nil {
		t.Fatalf("bare cell: %v", err)
	}
	if col != 1 || row != 3 {
		t.Errorf("ParseRangeStart(B3) = (%d, %d), want (1, 3)", col, row)
	}
}

func TestCellRefRoundTrip(t *testing.T) {
	for _, ref := range []string{"A1", "E7", "Z99", "AA1", "AB12"} {
		col, row, err := ParseCellRef(ref)
		if err != nil {
			t.Fatalf("ParseCellRef(%q): %v", ref, err)
		}
		if got := CellRef(col, row); got != ref {
			t.Errorf("CellRef(%d, %d) = %q, want %q", col, row, got, ref)
		}
	}
}

func TestColumnName(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"}, {4, "E"}, {11, "L"}, {25, "Z"}, {26, "AA"}, {27, "AB"},
	}
	for _, tt := range tests {
		if got := ColumnName(tt.col); got != tt.want {
			t.Errorf("ColumnName(%d) = %q, want %q", tt.col, got, tt.want)
		}
	}
}
