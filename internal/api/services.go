package api

import (
	"github.com/shelfwise/shelfwise-server/internal/assistant"
	"github.com/shelfwise/shelfwise-server/internal/authz"
	"github.com/shelfwise/shelfwise-server/internal/recommend"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

// Services groups the business logic the API server calls.
type Services struct {
	Auth      *service.AuthService
	Book      *service.BookService
	User      *service.UserService
	Review    *service.ReviewService
	Dashboard *service.DashboardService
	Recommend *recommend.Engine
	Assistant *assistant.Assistant // nil when no model is configured
	Suggester *assistant.Suggester // nil when no model is configured
	Enforcer  *authz.Enforcer
}
