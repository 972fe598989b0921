package intent

import "strings"

// EntityType tags an extracted entity.
type EntityType string

const (
	EntityCrop     EntityType = "crop"
	EntityLocation EntityType = "location"
)

// Entity is a typed value extracted from free text.
type Entity struct {
	Type  EntityType `json:"type"`
	Value string     `json:"value"`
}

// cropAliases maps trigger substrings to canonical crop names. Aliases
// for the same crop collapse to one entity.
var cropAliases = [][2]string{
	{"corn", "corn"},
	{"maize", "corn"},
	{"wheat", "wheat"},
	{"rice", "rice"},
	{"paddy", "rice"},
	{"tomato", "tomato"},
	{"potato", "potato"},
	{"onion", "onion"},
	{"cotton", "cotton"},
	{"sugarcane", "sugarcane"},
	{"soybean", "soybean"},
	{"soya", "soybean"},
	{"chilli", "chilli"},
	{"chili", "chilli"},
	{"banana", "banana"},
	{"mango", "mango"},
	{"groundnut", "groundnut"},
	{"peanut", "groundnut"},
	{"mustard", "mustard"},
}

var locationNames = []string{
	"punjab", "maharashtra", "karnataka", "gujarat", "rajasthan",
	"haryana", "kerala", "bihar", "odisha", "telangana",
	"iowa", "kansas", "nebraska", "texas", "california",
}

// ExtractEntities scans text against the closed crop and location
// vocabularies and returns every distinct match, not just the first.
// A single message can yield multiple entities of the same type.
func ExtractEntities(text string) []Entity {
	lowered := strings.ToLower(text)

	var entities []Entity
	seen := make(map[string]bool)

	for _, alias := range cropAliases {
		if strings.Contains(lowered, alias[0]) && !seen["crop:"+alias[1]] {
			seen["crop:"+alias[1]] = true
			entities = append(entities, Entity{Type: EntityCrop, Value: alias[1]})
		}
	}

	for _, name := range locationNames {
		if strings.Contains(lowered, name) && !seen["location:"+name] {
			seen["location:"+name] = true
			entities = append(entities, Entity{Type: EntityLocation, Value: name})
		}
	}

	return entities
}

// FirstCrop returns the first crop entity value, or "" if none.
func FirstCrop(entities []Entity) string {
	for _, e := range entities {
		if e.Type == EntityCrop {
			return e.Value
		}
	}
	return ""
}
