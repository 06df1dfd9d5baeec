package convert

import (
	"encoding/json"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "42", "42"},
		{"json number", json.Number("2024010110000012"), "2024010110000012"},
		{"int", 7, "7"},
		{"int64", int64(-3), "-3"},
		{"uint64", uint64(9), "9"},
		{"float without fraction", float64(12), "12"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"slice", []any{"a", 1}, `["a",1]`},
		{"map", map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := String(tt.in); got != tt.want {
				t.Errorf("String(%#v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStrings(t *testing.T) {
	if got := Strings(nil); got == nil || len(got) != 0 {
		t.Errorf("Strings(nil) = %#v, want empty non-nil slice", got)
	}

	got := Strings([]any{"1", json.Number("2"), 3.0})
	want := []string{"1", "2", "3"}
	if len(got) != len(want) {
		t.Fatalf("Strings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Strings[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := Strings("17"); len(got) != 1 || got[0] != "17" {
		t.Errorf("Strings(scalar) = %v", got)
	}
}
