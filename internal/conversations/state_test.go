package conversations

import "testing"

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   State
	}{
		{"empty record", Record{}, StateAwaitingPhoto},
		{"photo only", Record{PhotoURL: "https://cdn/p.jpg"}, StateAwaitingCaption},
		{"photo and caption", Record{PhotoURL: "u", Caption: "c"}, StateAwaitingQuantity},
		{"missing motivation", Record{PhotoURL: "u", Caption: "c", Quantity: "3"}, StateAwaitingWhyImportant},
		{"all fields filled", Record{PhotoURL: "u", Caption: "c", Quantity: "3", WhyImportant: "w"}, StateComplete},
		// Order is fixed: a later field never advances past an earlier gap.
		{"caption without photo", Record{Caption: "c"}, StateAwaitingPhoto},
		{"quantity without caption", Record{PhotoURL: "u", Quantity: "3"}, StateAwaitingCaption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveState(&tt.record); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}
