package validator

import (
	"context"
	"strings"
	"testing"
)

type sample struct {
	Category string `validate:"required,category"`
	Sub      string `validate:"omitempty,subcategory"`
	Max      int    `validate:"positive"`
	Cap      *int   `validate:"omitempty,positive"`
}

func TestValidate(t *testing.T) {
	zero := 0
	cases := []struct {
		name string
		in   sample
		want string
	}{
		{"ok", sample{Category: "workshop", Sub: "technical", Max: 3}, ""},
		{"missing category", sample{Max: 1}, "Field is required: sample.Category"},
		{"unknown category", sample{Category: "party", Max: 1}, "Unknown category: sample.Category"},
		{"unknown sub", sample{Category: "hackathon", Sub: "misc", Max: 1}, "Unknown sub-category: sample.Sub"},
		{"zero capacity", sample{Category: "hackathon", Max: 0}, "Value must be positive: sample.Max"},
		{"zero pointer", sample{Category: "hackathon", Max: 1, Cap: &zero}, "Value must be positive: sample.Cap"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(context.Background(), tc.in)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.EqualFold(err.Error(), tc.want) {
				t.Fatalf("want %q, got %v", tc.want, err)
			}
		})
	}
}
