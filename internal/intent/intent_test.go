package intent_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/croplink/agrobot/internal/intent"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected intent.Intent
	}{
		{
			name:     "empty string is general",
			input:    "",
			expected: intent.General,
		},
		{
			name:     "unrelated text is general",
			input:    "tell me a joke",
			expected: intent.General,
		},
		{
			name:     "weather keyword",
			input:    "what is the weather like today",
			expected: intent.Weather,
		},
		{
			name:     "forecast keyword",
			input:    "any rain in the forecast?",
			expected: intent.Weather,
		},
		{
			name:     "market keyword",
			input:    "current mandi rate for onions",
			expected: intent.Market,
		},
		{
			name:     "crop question with crop keyword",
			input:    "What's the best time to plant corn?",
			expected: intent.Crops,
		},
		{
			name:     "pest keyword",
			input:    "aphid infestation on my tomatoes",
			expected: intent.Pest,
		},
		{
			name:     "irrigation stem match",
			input:    "how often should I be irrigating",
			expected: intent.Irrigation,
		},
		{
			name:     "fertilizer keyword",
			input:    "which npk mix for paddy",
			expected: intent.Fertilizer,
		},
		{
			name:     "news keyword",
			input:    "show me the latest farming news",
			expected: intent.News,
		},
		{
			name:     "help keyword",
			input:    "help",
			expected: intent.Help,
		},
		{
			name:     "greeting keyword",
			input:    "good morning!",
			expected: intent.Greeting,
		},
		{
			name:     "case insensitive",
			input:    "WEATHER UPDATE PLEASE",
			expected: intent.Weather,
		},
		// First-match-wins ordering: categories earlier in the fixed
		// order absorb inputs that also match later ones.
		{
			name:     "weather beats crops",
			input:    "will the rain hurt my crop",
			expected: intent.Weather,
		},
		{
			name:     "market beats crops",
			input:    "price of wheat crop today",
			expected: intent.Market,
		},
		{
			name:     "crops beats pest",
			input:    "harvest is ruined by insects",
			expected: intent.Crops,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := intent.Classify(tc.input); got != tc.expected {
				t.Errorf("Classify(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	t.Parallel()

	inputs := []string{"", "   ", "xyzzy", "1234", "🌾🌾🌾"}
	for _, input := range inputs {
		if got := intent.Classify(input); got != intent.General {
			t.Errorf("Classify(%q) = %v, want General", input, got)
		}
	}
}

func TestExtractEntities(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected []intent.Entity
	}{
		{
			name:     "no entities",
			input:    "hello there",
			expected: nil,
		},
		{
			name:  "single crop",
			input: "What's the best time to plant corn?",
			expected: []intent.Entity{
				{Type: intent.EntityCrop, Value: "corn"},
			},
		},
		{
			name:  "alias collapses to canonical crop",
			input: "maize and corn prices",
			expected: []intent.Entity{
				{Type: intent.EntityCrop, Value: "corn"},
			},
		},
		{
			name:  "multiple crops and a location",
			input: "growing wheat and rice in punjab",
			expected: []intent.Entity{
				{Type: intent.EntityCrop, Value: "wheat"},
				{Type: intent.EntityCrop, Value: "rice"},
				{Type: intent.EntityLocation, Value: "punjab"},
			},
		},
		{
			name:  "paddy maps to rice",
			input: "paddy transplanting",
			expected: []intent.Entity{
				{Type: intent.EntityCrop, Value: "rice"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := intent.ExtractEntities(tc.input)
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("ExtractEntities(%q) mismatch (-want +got):\n%s", tc.input, diff)
			}
		})
	}
}

func TestFirstCrop(t *testing.T) {
	t.Parallel()

	entities := []intent.Entity{
		{Type: intent.EntityLocation, Value: "karnataka"},
		{Type: intent.EntityCrop, Value: "tomato"},
		{Type: intent.EntityCrop, Value: "potato"},
	}
	if got := intent.FirstCrop(entities); got != "tomato" {
		t.Errorf("FirstCrop() = %q, want %q", got, "tomato")
	}
	if got := intent.FirstCrop(nil); got != "" {
		t.Errorf("FirstCrop(nil) = %q, want empty", got)
	}
}
