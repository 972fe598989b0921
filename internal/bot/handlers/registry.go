package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its pattern and
// middleware. It encapsulates everything needed to register a command.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot
// commands with their handlers and middleware.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	userMiddleware := []tgbot.Middleware{UserGuard(deps)}
	adminMiddleware := []tgbot.Middleware{AdminOnly(deps)}

	command := func(pattern string, handler tgbot.HandlerFunc, mw []tgbot.Middleware) {
		handlers["/"+pattern] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Handler:     handler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  mw,
		}
	}

	command("start", NewStartHandler(deps), userMiddleware)
	command("help", NewHelpHandler(deps), userMiddleware)
	command("profile", NewProfileHandler(deps), userMiddleware)
	command("setlocation", NewSetLocationHandler(deps), userMiddleware)
	command("setcrops", NewSetCropsHandler(deps), userMiddleware)
	command("notify", NewNotifyHandler(deps), userMiddleware)
	command("delete_me", NewDeleteMeHandler(deps), userMiddleware)

	command("stats", NewStatsHandler(deps), adminMiddleware)
	command("ban", NewBanHandler(deps), adminMiddleware)
	command("unban", NewUnbanHandler(deps), adminMiddleware)
	command("grant", NewGrantHandler(deps), adminMiddleware)
	command("jobs", NewJobsHandler(deps), adminMiddleware)
	command("job_stop", NewJobStopHandler(deps), adminMiddleware)
	command("job_start", NewJobStartHandler(deps), adminMiddleware)

	return handlers
}
