// Package knowledge holds the static agricultural content the bot can
// serve without calling any external backend: crop fact sheets, daily
// tips, and canned response templates.
package knowledge

import "strings"

// CropInfo is a static fact sheet for one crop.
type CropInfo struct {
	Name           string
	PlantingWindow string
	HarvestWindow  string
	WaterNeed      string
	Diseases       []string
}

var cropFacts = map[string]CropInfo{
	"corn": {
		Name:           "Corn",
		PlantingWindow: "April to June, once soil reaches 10°C",
		HarvestWindow:  "90–120 days after sowing",
		WaterNeed:      "500–800 mm per season, critical at tasseling",
		Diseases:       []string{"stem borer", "leaf blight", "rust"},
	},
	"wheat": {
		Name:           "Wheat",
		PlantingWindow: "October to December",
		HarvestWindow:  "March to May",
		WaterNeed:      "450–650 mm per season",
		Diseases:       []string{"rust", "smut", "powdery mildew"},
	},
	"rice": {
		Name:           "Rice",
		PlantingWindow: "June to July with monsoon onset",
		HarvestWindow:  "November to December",
		WaterNeed:      "1100–1250 mm, standing water during tillering",
		Diseases:       []string{"blast", "bacterial leaf blight", "sheath blight"},
	},
	"tomato": {
		Name:           "Tomato",
		PlantingWindow: "year-round in mild climates; avoid frost",
		HarvestWindow:  "60–85 days after transplanting",
		WaterNeed:      "600–800 mm, even moisture to prevent cracking",
		Diseases:       []string{"early blight", "late blight", "leaf curl virus"},
	},
	"potato": {
		Name:           "Potato",
		PlantingWindow: "October to November in plains, spring in hills",
		HarvestWindow:  "75–120 days after planting",
		WaterNeed:      "500–700 mm, stop before harvest",
		Diseases:       []string{"late blight", "black scurf", "common scab"},
	},
	"onion": {
		Name:           "Onion",
		PlantingWindow: "October to November (rabi), June to July (kharif)",
		HarvestWindow:  "100–140 days after transplanting",
		WaterNeed:      "350–550 mm, light frequent irrigation",
		Diseases:       []string{"purple blotch", "downy mildew", "basal rot"},
	},
	"cotton": {
		Name:           "Cotton",
		PlantingWindow: "April to May",
		HarvestWindow:  "150–180 days after sowing, picked in rounds",
		WaterNeed:      "700–1300 mm depending on variety",
		Diseases:       []string{"bollworm", "leaf curl virus", "wilt"},
	},
	"sugarcane": {
		Name:           "Sugarcane",
		PlantingWindow: "February to March or September to October",
		HarvestWindow:  "10–18 months after planting",
		WaterNeed:      "1500–2500 mm, heaviest of the field crops",
		Diseases:       []string{"red rot", "smut", "top borer"},
	},
	"soybean": {
		Name:           "Soybean",
		PlantingWindow: "June to July with first monsoon rains",
		HarvestWindow:  "90–110 days after sowing",
		WaterNeed:      "450–700 mm, sensitive at pod fill",
		Diseases:       []string{"rust", "pod borer", "yellow mosaic virus"},
	},
}

// CropFact looks up the static fact sheet for a crop name. The lookup is
// case-insensitive. Returns false if the crop is not in the table.
func CropFact(name string) (CropInfo, bool) {
	info, ok := cropFacts[strings.ToLower(name)]
	return info, ok
}

// KnownCrops lists the crops with fact sheets, for quick replies.
func KnownCrops() []string {
	return []string{"corn", "wheat", "rice", "tomato", "potato", "onion", "cotton", "sugarcane", "soybean"}
}
