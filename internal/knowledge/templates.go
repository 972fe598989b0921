package knowledge

// Greetings are rotated for greeting-intent messages. Any one of them
// satisfies the contract; selection does not need to be deterministic.
var Greetings = []string{
	"👋 Hello! How can I help with your farm today?",
	"Hi there! Ask me about weather, crops, pests, or market prices.",
	"🌾 Welcome back! What would you like to know?",
	"Hello, farmer! I'm here for weather, crop advice, and more.",
}

// Domain fallbacks, used when the advice backend is unavailable. The
// user never sees a raw error.
const (
	FallbackCrops = "I don't have specifics on that yet. Pick a crop and I'll share planting windows, water needs, and common diseases."

	FallbackPest = "For most pest problems: inspect plants early morning, remove affected leaves, and prefer neem-based sprays before chemical ones. Ask again later for tailored advice."

	FallbackIrrigation = "As a rule of thumb, water deeply but less often, early in the morning. Check soil moisture 5 cm down before irrigating. Ask again later for tailored advice."

	FallbackFertilizer = "Balanced NPK at sowing and a nitrogen top-dress at peak growth covers most crops. A soil test is the best first step. Ask again later for tailored advice."

	FallbackNews = "😕 I couldn't fetch agricultural news right now. Try again later, or ask me about weather, crops, or market prices."
)

// GeneralRedirects are rotated when a general-intent request can't reach
// the advice backend.
var GeneralRedirects = []string{
	"I'm best at weather, crops, pests, irrigation, fertilizer, and market prices. Try one of those!",
	"Not sure about that one. Ask me about your crops, the weather, or market prices.",
	"Let's talk farming — weather forecasts, crop advice, pest control, or mandi prices.",
}

// Static reply templates for intents that never call a backend.
const (
	WeatherPrompt = "🌤️ I can share current weather and forecasts for your farm. Set your location with /setlocation, then ask me about the weather."

	MarketPrompt = "📈 I track market prices for major crops. Ask about a specific crop, or enable daily price updates with /notify."

	HelpText = "🌾 Here's what I can do:\n" +
		"• Weather — current conditions and forecasts for your location\n" +
		"• Crops — planting windows, water needs, diseases\n" +
		"• Pests, irrigation, fertilizer — practical advice\n" +
		"• Market — crop price updates\n" +
		"• News — agricultural headlines\n\n" +
		"Commands: /profile /setlocation /setcrops /notify"
)

// Daily tips, rotated by day of year by the tips broadcast.
var Tips = []string{
	"💡 Mulch around plants to hold soil moisture and suppress weeds.",
	"💡 Rotate crops each season to break pest and disease cycles.",
	"💡 Water early in the morning to cut evaporation losses.",
	"💡 Scout your field edges first — infestations usually start there.",
	"💡 A cheap rain gauge beats guessing how much irrigation you need.",
	"💡 Test soil every two to three years; fertilize to the test, not habit.",
	"💡 Keep harvest records per plot — they reveal your best varieties.",
}

// TipOfTheDay returns the tip for the given day-of-year.
func TipOfTheDay(yearDay int) string {
	return Tips[yearDay%len(Tips)]
}

// Quick reply sets attached to responses.
var (
	MainQuickReplies    = []string{"Weather", "Crops", "Market prices", "News"}
	CropQuickReplies    = []string{"Corn", "Wheat", "Rice", "Tomato", "Potato"}
	WeatherQuickReplies = []string{"Today's weather", "5-day forecast"}
)
