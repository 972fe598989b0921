package advisor

import (
	"fmt"
	"strings"
)

// UserContext carries the account details embedded into prompts so the
// backend can tailor advice.
type UserContext struct {
	Country    string
	State      string
	City       string
	Crops      []string
	Experience string
}

func (u UserContext) describe() string {
	var parts []string

	location := strings.TrimSpace(strings.Join(nonEmpty(u.City, u.State, u.Country), ", "))
	if location != "" {
		parts = append(parts, "Location: "+location)
	}
	if len(u.Crops) > 0 {
		parts = append(parts, "Grows: "+strings.Join(u.Crops, ", "))
	}
	if u.Experience != "" {
		parts = append(parts, "Experience: "+u.Experience)
	}

	if len(parts) == 0 {
		return ""
	}
	return "Farmer context — " + strings.Join(parts, "; ") + ".\n"
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// CropPrompt builds a prompt for crop-growing questions.
func CropPrompt(question string, user UserContext, wordBudget int) string {
	return fmt.Sprintf(
		"%sA farmer asks about growing crops: %q\n"+
			"Answer with concrete planting, care, and harvest guidance. Keep it under %d words.",
		user.describe(), question, wordBudget)
}

// PestPrompt builds a prompt for pest and disease questions.
func PestPrompt(question string, user UserContext, wordBudget int) string {
	return fmt.Sprintf(
		"%sA farmer reports a pest or disease problem: %q\n"+
			"Identify likely causes and give treatment steps, preferring integrated pest management. Keep it under %d words.",
		user.describe(), question, wordBudget)
}

// IrrigationPrompt builds a prompt for irrigation questions.
func IrrigationPrompt(question string, user UserContext, wordBudget int) string {
	return fmt.Sprintf(
		"%sA farmer asks about irrigation: %q\n"+
			"Give watering schedule and method advice suited to the crops and climate. Keep it under %d words.",
		user.describe(), question, wordBudget)
}

// FertilizerPrompt builds a prompt for fertilizer and nutrient questions.
func FertilizerPrompt(question string, user UserContext, wordBudget int) string {
	return fmt.Sprintf(
		"%sA farmer asks about fertilization: %q\n"+
			"Recommend nutrients, amounts, and timing; mention organic options where sensible. Keep it under %d words.",
		user.describe(), question, wordBudget)
}

// GeneralPrompt builds a prompt for uncategorized questions, with full
// user context embedded.
func GeneralPrompt(question string, user UserContext, wordBudget int) string {
	return fmt.Sprintf(
		"%sA farmer asks: %q\n"+
			"If this relates to agriculture, answer helpfully; otherwise gently steer back to farming topics. Keep it under %d words.",
		user.describe(), question, wordBudget)
}

// TipPrompt asks the backend to expand a static tip of the day.
func TipPrompt(tip string, wordBudget int) string {
	return fmt.Sprintf(
		"Expand this farming tip into one short, practical paragraph a smallholder can act on today: %q\n"+
			"Keep it under %d words.", tip, wordBudget)
}
