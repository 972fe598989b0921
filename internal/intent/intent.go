// Package intent maps free-text user input to a fixed set of request
// categories and extracts crop and location entities by substring match.
package intent

import "strings"

// Intent is a coarse category of user request.
type Intent int

// Intents in classification order. Classification is first-match-wins
// over this exact order; inputs matching multiple categories resolve to
// the earliest one. Changing the order changes classification results.
const (
	Weather Intent = iota
	Market
	Crops
	Pest
	Irrigation
	Fertilizer
	News
	Help
	Greeting
	General
)

var intentNames = map[Intent]string{
	Weather:    "weather",
	Market:     "market",
	Crops:      "crops",
	Pest:       "pest",
	Irrigation: "irrigation",
	Fertilizer: "fertilizer",
	News:       "news",
	Help:       "help",
	Greeting:   "greeting",
	General:    "general",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "general"
}

// All lists every intent in classification order.
func All() []Intent {
	return []Intent{Weather, Market, Crops, Pest, Irrigation, Fertilizer, News, Help, Greeting, General}
}

// triggers holds the keyword set per intent. Matching is lower-cased
// substring containment, so multi-word triggers work too.
var triggers = map[Intent][]string{
	Weather:    {"weather", "temperature", "rain", "forecast", "humidity", "wind", "sunny", "cloudy", "climate"},
	Market:     {"price", "market", "mandi", "sell", "rate", "demand", "wholesale"},
	Crops:      {"crop", "plant", "seed", "sow", "harvest", "grow", "variety", "yield", "cultivat"},
	Pest:       {"pest", "insect", "disease", "fungus", "bug", "infestation", "larva", "aphid", "weed"},
	Irrigation: {"irrigat", "water", "drip", "sprinkler", "moisture"},
	Fertilizer: {"fertilizer", "fertiliser", "nutrient", "manure", "compost", "urea", "npk"},
	News:       {"news", "headline", "article"},
	Help:       {"help", "support", "what can you do", "how do i use"},
	Greeting:   {"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "namaste"},
}

// Classify maps free text to an intent. It is a total function: inputs
// matching no trigger set return General.
func Classify(text string) Intent {
	lowered := strings.ToLower(text)

	for _, intent := range All() {
		for _, trigger := range triggers[intent] {
			if strings.Contains(lowered, trigger) {
				return intent
			}
		}
	}
	return General
}
