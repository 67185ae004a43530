package schema

import "testing"

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"", "xyz", 3},
		{"kitten", "sitting", 3},
		{"users", "usres", 2},
		{"orders", "order", 1},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSuggest(t *testing.T) {
	tables := []string{"users", "orders", "order_items", "customers"}

	tests := []struct {
		input string
		want  string
	}{
		{"usres", "users"},
		{"order", "orders"},
		{"USERS", "users"},
		{"customer", "customers"},
		{"completely_different", ""},
		{"ord", ""},
	}
	for _, tt := range tests {
		if got := Suggest(tt.input, tables); got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSuggest_NoCandidates(t *testing.T) {
	if got := Suggest("anything", nil); got != "" {
		t.Errorf("Suggest with no candidates = %q", got)
	}
}

func TestSuggestKeyword(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"SELEC", "SELECT"},
		{"selec", "SELECT"},
		{"FORM", "FROM"},
		{"were", "WHERE"},
		{"SELECT", ""},
		{"banana", ""},
	}
	for _, tt := range tests {
		if got := SuggestKeyword(tt.word); got != tt.want {
			t.Errorf("SuggestKeyword(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}
