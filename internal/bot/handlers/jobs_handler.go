package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewJobsHandler returns a handler for the admin /jobs command, listing
// every registered job and its state.
func NewJobsHandler(deps HandlerDeps) bot.HandlerFunc {
	return jobsHandler{deps}.Handle
}

type jobsHandler struct {
	deps HandlerDeps
}

func (h jobsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "jobs")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	states := h.deps.Jobs.JobStates()
	if len(states) == 0 {
		sendReply(ctx, b, log, chatID, "No jobs registered.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("⚙️ Scheduled jobs\n\n")
	for _, status := range states {
		sb.WriteString(fmt.Sprintf("%s: %s\n", status.Name, status.State))
	}
	sb.WriteString("\nControl with /job_stop <name> and /job_start <name>.")

	sendReply(ctx, b, log, chatID, sb.String(), nil)
}

// NewJobStopHandler returns a handler for the admin /job_stop <name>
// command. An in-flight run of the job is not cancelled.
func NewJobStopHandler(deps HandlerDeps) bot.HandlerFunc {
	return jobControlHandler{deps: deps, stop: true}.Handle
}

// NewJobStartHandler returns a handler for the admin /job_start <name>
// command, re-scheduling a previously stopped job.
func NewJobStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return jobControlHandler{deps: deps, stop: false}.Handle
}

type jobControlHandler struct {
	deps HandlerDeps
	stop bool
}

func (h jobControlHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	name := "job_start"
	if h.stop {
		name = "job_stop"
	}
	log := h.deps.Logger.With("handler", name)

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		sendReply(ctx, b, log, chatID, fmt.Sprintf("Usage: /%s <job_name>", name), nil)
		return
	}

	jobName := args[0]
	var err error
	if h.stop {
		err = h.deps.Jobs.StopJob(jobName)
	} else {
		err = h.deps.Jobs.StartJob(jobName)
	}
	if err != nil {
		log.WarnContext(ctx, "Job control failed", "job_name", jobName, "error", err)
		sendReply(ctx, b, log, chatID, fmt.Sprintf("⚠️ %s", err), nil)
		return
	}

	verb := "resumed"
	if h.stop {
		verb = "stopped"
	}
	log.InfoContext(ctx, "Job control applied", "job_name", jobName, "action", verb)
	sendReply(ctx, b, log, chatID, fmt.Sprintf("⚙️ Job %q %s.", jobName, verb), nil)
}
