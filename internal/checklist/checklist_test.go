package checklist

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestItemValidate verifies field validation.
func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{"valid", Item{ID: 1, Year: 2024, Description: "Audited statements", PIC: "Finance"}, false},
		{"valid without pic", Item{ID: 2, Year: 2024, Description: "Board minutes"}, false},
		{"zero id", Item{Year: 2024, Description: "x"}, true},
		{"negative id", Item{ID: -1, Year: 2024, Description: "x"}, true},
		{"zero year", Item{ID: 1, Description: "x"}, true},
		{"empty description", Item{ID: 1, Year: 2024}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestItemGroup verifies PIC fallback resolution.
func TestItemGroup(t *testing.T) {
	assigned := Item{ID: 1, Year: 2024, Description: "x", PIC: "Finance"}
	if got := assigned.Group("Ops"); got != "Finance" {
		t.Errorf("Group() = %q, want Finance", got)
	}

	unassigned := Item{ID: 2, Year: 2024, Description: "x"}
	if got := unassigned.Group("Ops"); got != "Ops" {
		t.Errorf("Group() = %q, want Ops", got)
	}
	if got := unassigned.Group(""); got != DefaultGroup {
		t.Errorf("Group() = %q, want %q", got, DefaultGroup)
	}
}

// TestGroupByPIC verifies grouping and stable group ordering.
func TestGroupByPIC(t *testing.T) {
	items := []Item{
		{ID: 1, Year: 2024, Description: "a", PIC: "Legal"},
		{ID: 2, Year: 2024, Description: "b", PIC: "Finance"},
		{ID: 3, Year: 2024, Description: "c", PIC: "Finance"},
		{ID: 4, Year: 2024, Description: "d"},
	}

	groups, names := GroupByPIC(items, "Ops")

	wantNames := []string{"Finance", "Legal", "Ops"}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Errorf("group names mismatch (-want +got):\n%s", diff)
	}

	if len(groups["Finance"]) != 2 {
		t.Errorf("Finance group has %d items, want 2", len(groups["Finance"]))
	}
	if len(groups["Legal"]) != 1 {
		t.Errorf("Legal group has %d items, want 1", len(groups["Legal"]))
	}
	if len(groups["Ops"]) != 1 || groups["Ops"][0].ID != 4 {
		t.Errorf("Ops group = %v, want item 4", groups["Ops"])
	}
}

// TestPartition verifies batch partition math.
func TestPartition(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		size      int
		wantSizes []int
	}{
		{"empty", 0, 10, nil},
		{"single partial batch", 3, 10, []int{3}},
		{"exact batch", 10, 10, []int{10}},
		{"one over", 11, 10, []int{10, 1}},
		{"twenty-three items", 23, 10, []int{10, 10, 3}},
		{"non-positive size", 3, 0, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]int, tt.count)
			for i := range ids {
				ids[i] = i + 1
			}

			batches := Partition(ids, tt.size)

			var gotSizes []int
			for _, b := range batches {
				gotSizes = append(gotSizes, len(b))
			}
			if diff := cmp.Diff(tt.wantSizes, gotSizes); diff != "" {
				t.Errorf("batch sizes mismatch (-want +got):\n%s", diff)
			}

			// Batches must cover the input in order
			var flat []int
			for _, b := range batches {
				flat = append(flat, b...)
			}
			if diff := cmp.Diff(ids, flat); tt.count > 0 && diff != "" {
				t.Errorf("flattened batches mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestIDs verifies identifier extraction preserves order.
func TestIDs(t *testing.T) {
	items := []Item{
		{ID: 5, Year: 2024, Description: "a"},
		{ID: 2, Year: 2024, Description: "b"},
	}
	if diff := cmp.Diff([]int{5, 2}, IDs(items)); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}
}
