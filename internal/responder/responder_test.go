package responder_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/croplink/agrobot/internal/intent"
	"github.com/croplink/agrobot/internal/knowledge"
	"github.com/croplink/agrobot/internal/news"
	"github.com/croplink/agrobot/internal/responder"
)

type fakeAdvisor struct {
	reply string
	err   error
	calls int
}

func (f *fakeAdvisor) Advise(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeAdvisor) ModelTag() string { return "fake-model" }

type fakeNews struct {
	result news.Result
}

func (f *fakeNews) ByCategory(_ context.Context, _ string) news.Result {
	return f.result
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerateNeverFails(t *testing.T) {
	t.Parallel()

	// Every backend down: the user still gets a non-empty reply with
	// reduced confidence, never an error.
	r := responder.New(
		&fakeAdvisor{err: errors.New("backend down")},
		&fakeNews{result: news.Result{OK: false}},
		150, discardLogger())

	for _, in := range intent.All() {
		resp := r.Generate(context.Background(), in, nil, "some question about farming", nil)
		if strings.TrimSpace(resp.Text) == "" {
			t.Errorf("intent %v produced empty response text", in)
		}
		if resp.Confidence <= 0 || resp.Confidence > 1 {
			t.Errorf("intent %v confidence = %v, want (0, 1]", in, resp.Confidence)
		}
	}
}

func TestGenerateFallbackConfidence(t *testing.T) {
	t.Parallel()

	r := responder.New(
		&fakeAdvisor{err: errors.New("backend down")},
		&fakeNews{result: news.Result{OK: false}},
		150, discardLogger())

	// Backend-dependent intents degrade below the static band.
	for _, in := range []intent.Intent{intent.Pest, intent.Irrigation, intent.Fertilizer, intent.News, intent.General} {
		resp := r.Generate(context.Background(), in, nil, "how do I handle this", nil)
		if resp.Confidence > 0.7 {
			t.Errorf("intent %v fallback confidence = %v, want <= 0.7", in, resp.Confidence)
		}
		if resp.ModelTag != "" {
			t.Errorf("intent %v fallback ModelTag = %q, want empty", in, resp.ModelTag)
		}
	}
}

func TestGenerateLiveAdvice(t *testing.T) {
	t.Parallel()

	advisorClient := &fakeAdvisor{reply: "spray neem oil in the evening"}
	r := responder.New(advisorClient, &fakeNews{}, 150, discardLogger())

	resp := r.Generate(context.Background(), intent.Pest, nil, "aphids on my beans", nil)
	if resp.Text != "spray neem oil in the evening" {
		t.Errorf("Text = %q, want the backend reply", resp.Text)
	}
	if resp.Confidence != 0.85 {
		t.Errorf("live confidence = %v, want 0.85", resp.Confidence)
	}
	if resp.ModelTag != "fake-model" {
		t.Errorf("ModelTag = %q, want fake-model", resp.ModelTag)
	}
}

func TestGenerateCropFactFromEntity(t *testing.T) {
	t.Parallel()

	advisorClient := &fakeAdvisor{reply: "should not be used"}
	r := responder.New(advisorClient, &fakeNews{}, 150, discardLogger())

	entities := []intent.Entity{{Type: intent.EntityCrop, Value: "corn"}}
	resp := r.Generate(context.Background(), intent.Crops, entities, "tell me about corn", nil)

	if !strings.Contains(resp.Text, "Corn") {
		t.Errorf("crop fact response missing crop name: %q", resp.Text)
	}
	if resp.Confidence != 0.9 {
		t.Errorf("static fact confidence = %v, want 0.9", resp.Confidence)
	}
	if advisorClient.calls != 0 {
		t.Errorf("advisor called %d times for a table lookup, want 0", advisorClient.calls)
	}
}

func TestGenerateCropQuestionWithoutEntity(t *testing.T) {
	t.Parallel()

	advisorClient := &fakeAdvisor{reply: "plant after the last frost"}
	r := responder.New(advisorClient, &fakeNews{}, 150, discardLogger())

	resp := r.Generate(context.Background(), intent.Crops, nil, "when should I start sowing?", nil)
	if resp.Text != "plant after the last frost" {
		t.Errorf("Text = %q, want backend reply for a question", resp.Text)
	}
	if advisorClient.calls != 1 {
		t.Errorf("advisor called %d times, want 1", advisorClient.calls)
	}
}

func TestGenerateNews(t *testing.T) {
	t.Parallel()

	provider := &fakeNews{result: news.Result{
		OK: true,
		Articles: []news.Article{
			{Title: "Wheat exports rise", Link: "https://example.com/wheat"},
			{Title: "New drought-resistant seed", Link: "https://example.com/seed"},
		},
	}}
	r := responder.New(&fakeAdvisor{}, provider, 150, discardLogger())

	resp := r.Generate(context.Background(), intent.News, nil, "any market news?", nil)
	if !strings.Contains(resp.Text, "Wheat exports rise") {
		t.Errorf("news response missing article title: %q", resp.Text)
	}
	if !strings.Contains(resp.Text, "https://example.com/seed") {
		t.Errorf("news response missing article link: %q", resp.Text)
	}
}

func TestGenerateNewsFallback(t *testing.T) {
	t.Parallel()

	r := responder.New(&fakeAdvisor{}, &fakeNews{result: news.Result{OK: false}}, 150, discardLogger())

	resp := r.Generate(context.Background(), intent.News, nil, "news please", nil)
	if resp.Text != knowledge.FallbackNews {
		t.Errorf("Text = %q, want the news fallback", resp.Text)
	}
	if resp.Confidence > 0.7 {
		t.Errorf("fallback confidence = %v, want <= 0.7", resp.Confidence)
	}
}

func TestGenerateStaticIntents(t *testing.T) {
	t.Parallel()

	advisorClient := &fakeAdvisor{err: errors.New("must not be called")}
	r := responder.New(advisorClient, &fakeNews{}, 150, discardLogger())

	testCases := []struct {
		name   string
		intent intent.Intent
	}{
		{name: "greeting", intent: intent.Greeting},
		{name: "weather", intent: intent.Weather},
		{name: "market", intent: intent.Market},
		{name: "help", intent: intent.Help},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resp := r.Generate(context.Background(), tc.intent, nil, "hello", nil)
			if resp.Text == "" {
				t.Error("static intent produced empty text")
			}
			if resp.Confidence != 0.9 {
				t.Errorf("static confidence = %v, want 0.9", resp.Confidence)
			}
			if len(resp.QuickReplies) == 0 {
				t.Error("static intent should offer quick replies")
			}
		})
	}

	if advisorClient.calls != 0 {
		t.Errorf("advisor called %d times for static intents, want 0", advisorClient.calls)
	}
}
