// Package responder turns a classified message into a rendered response.
// Dispatch is an exhaustive switch over the intent enum; every external
// backend call degrades to a static fallback, so Generate never fails
// and the caller never sees an error.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/croplink/agrobot/internal/advisor"
	"github.com/croplink/agrobot/internal/database"
	"github.com/croplink/agrobot/internal/intent"
	"github.com/croplink/agrobot/internal/knowledge"
	"github.com/croplink/agrobot/internal/news"
)

// Confidence bands: live backend responses score high, static templates
// slightly below, fallbacks after a backend failure lowest.
const (
	confidenceLive     = 0.85
	confidenceStatic   = 0.9
	confidenceFallback = 0.6
)

// Response is a rendered reply plus optional quick-reply affordances.
// ModelTag names the backend that produced the text and is empty for
// static template responses.
type Response struct {
	Text         string
	QuickReplies []string
	Confidence   float64
	ModelTag     string
}

// Responder generates responses from intent, entities, and user context.
type Responder struct {
	log        *slog.Logger
	advisor    advisor.Client
	news       news.Provider
	wordBudget int
}

// New creates a Responder.
func New(advisorClient advisor.Client, newsProvider news.Provider, wordBudget int, log *slog.Logger) *Responder {
	return &Responder{
		log:        log.With("component", "responder"),
		advisor:    advisorClient,
		news:       newsProvider,
		wordBudget: wordBudget,
	}
}

// Generate renders a response for the classified message. It is total:
// any backend failure is absorbed into a fallback with lower confidence.
func (r *Responder) Generate(ctx context.Context, in intent.Intent, entities []intent.Entity, text string, account *database.Account) Response {
	user := userContext(account)

	switch in {
	case intent.Greeting:
		return Response{
			Text:         knowledge.Greetings[rand.IntN(len(knowledge.Greetings))],
			QuickReplies: knowledge.MainQuickReplies,
			Confidence:   confidenceStatic,
		}

	case intent.Weather:
		return Response{
			Text:         knowledge.WeatherPrompt,
			QuickReplies: knowledge.WeatherQuickReplies,
			Confidence:   confidenceStatic,
		}

	case intent.Market:
		return Response{
			Text:         knowledge.MarketPrompt,
			QuickReplies: knowledge.MainQuickReplies,
			Confidence:   confidenceStatic,
		}

	case intent.Help:
		return Response{
			Text:         knowledge.HelpText,
			QuickReplies: knowledge.MainQuickReplies,
			Confidence:   confidenceStatic,
		}

	case intent.Crops:
		return r.generateCrops(ctx, entities, text, user)

	case intent.Pest:
		return r.withFallback(ctx, advisor.PestPrompt(text, user, r.wordBudget), knowledge.FallbackPest, nil)

	case intent.Irrigation:
		return r.withFallback(ctx, advisor.IrrigationPrompt(text, user, r.wordBudget), knowledge.FallbackIrrigation, nil)

	case intent.Fertilizer:
		return r.withFallback(ctx, advisor.FertilizerPrompt(text, user, r.wordBudget), knowledge.FallbackFertilizer, nil)

	case intent.News:
		return r.generateNews(ctx, text)

	case intent.General:
		fallback := knowledge.GeneralRedirects[rand.IntN(len(knowledge.GeneralRedirects))]
		return r.withFallback(ctx, advisor.GeneralPrompt(text, user, r.wordBudget), fallback, knowledge.MainQuickReplies)
	}

	// Unreachable with a valid intent; treat like general fallback.
	return Response{
		Text:         knowledge.GeneralRedirects[0],
		QuickReplies: knowledge.MainQuickReplies,
		Confidence:   confidenceFallback,
	}
}

// withFallback tries the advice backend and substitutes the supplied
// fallback text on any failure. This is the single place the
// "try external call, default on failure" policy lives.
func (r *Responder) withFallback(ctx context.Context, prompt, fallback string, quickReplies []string) Response {
	advice, err := r.advisor.Advise(ctx, prompt)
	if err != nil {
		r.log.WarnContext(ctx, "Advice backend failed, using fallback", "error", err)
		return Response{Text: fallback, QuickReplies: quickReplies, Confidence: confidenceFallback}
	}
	return Response{
		Text:         advice,
		QuickReplies: quickReplies,
		Confidence:   confidenceLive,
		ModelTag:     r.advisor.ModelTag(),
	}
}

func (r *Responder) generateCrops(ctx context.Context, entities []intent.Entity, text string, user advisor.UserContext) Response {
	if crop := intent.FirstCrop(entities); crop != "" {
		if info, ok := knowledge.CropFact(crop); ok {
			return Response{
				Text:         formatCropFact(info),
				QuickReplies: knowledge.CropQuickReplies,
				Confidence:   confidenceStatic,
			}
		}
	}

	if looksLikeQuestion(text) {
		return r.withFallback(ctx, advisor.CropPrompt(text, user, r.wordBudget), knowledge.FallbackCrops, knowledge.CropQuickReplies)
	}

	return Response{
		Text:         knowledge.FallbackCrops,
		QuickReplies: knowledge.CropQuickReplies,
		Confidence:   confidenceFallback,
	}
}

func (r *Responder) generateNews(ctx context.Context, text string) Response {
	category := news.InferCategory(text)
	result := r.news.ByCategory(ctx, category)

	if !result.OK || len(result.Articles) == 0 {
		return Response{
			Text:         knowledge.FallbackNews,
			QuickReplies: knowledge.MainQuickReplies,
			Confidence:   confidenceFallback,
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📰 Agricultural news (%s):\n\n", category))
	for i, article := range result.Articles {
		sb.WriteString(fmt.Sprintf("%d. %s\n%s\n\n", i+1, article.Title, article.Link))
	}

	return Response{
		Text:         strings.TrimSpace(sb.String()),
		QuickReplies: knowledge.MainQuickReplies,
		Confidence:   confidenceLive,
		ModelTag:     "rss",
	}
}

func formatCropFact(info knowledge.CropInfo) string {
	return fmt.Sprintf(
		"🌱 %s\n\n"+
			"Planting: %s\n"+
			"Harvest: %s\n"+
			"Water: %s\n"+
			"Watch for: %s",
		info.Name, info.PlantingWindow, info.HarvestWindow, info.WaterNeed,
		strings.Join(info.Diseases, ", "))
}

var questionMarkers = []string{"how to", "how do", "when to", "when should", "best", "should i", "why", "what"}

func looksLikeQuestion(text string) bool {
	lowered := strings.ToLower(text)
	if strings.Contains(lowered, "?") {
		return true
	}
	for _, marker := range questionMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func userContext(account *database.Account) advisor.UserContext {
	if account == nil {
		return advisor.UserContext{}
	}
	return advisor.UserContext{
		Country:    account.Country,
		State:      account.State,
		City:       account.City,
		Crops:      account.CropTags(),
		Experience: account.Experience,
	}
}
