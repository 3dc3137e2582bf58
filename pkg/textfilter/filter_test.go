package textfilter

import "testing"

func TestPromptFilter_Sanitize(t *testing.T) {
	filter := NewPromptFilter()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple replacement",
			input:    "what the hell is that sword",
			expected: "what the heck is that sword",
		},
		{
			name:     "multiple words",
			input:    "a damn crap dagger",
			expected: "a dang crud dagger",
		},
		{
			name:     "uppercase preserved",
			input:    "DAMN cursed blade",
			expected: "DANG cursed blade",
		},
		{
			name:     "title case preserved",
			input:    "Hell hound",
			expected: "Heck hound",
		},
		{
			name:     "word boundaries respected",
			input:    "a classical marble statue",
			expected: "a classical marble statue",
		},
		{
			name:     "clean prompt untouched",
			input:    "a rusty dagger",
			expected: "a rusty dagger",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPromptFilter_ContainsProfanity(t *testing.T) {
	filter := NewPromptFilter()

	if !filter.ContainsProfanity("a damn fine hat") {
		t.Error("expected profanity to be detected")
	}
	if filter.ContainsProfanity("a rusty dagger") {
		t.Error("expected clean prompt to pass")
	}
}

func TestShouldFilter(t *testing.T) {
	tests := []struct {
		rating   string
		expected bool
	}{
		{"G", true},
		{"PG", true},
		{"pg13", true},
		{"PG-13", true},
		{"R", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ShouldFilter(tt.rating); got != tt.expected {
			t.Errorf("ShouldFilter(%q) = %v, want %v", tt.rating, got, tt.expected)
		}
	}
}
