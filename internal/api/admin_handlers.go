package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/shelfwise-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getDashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/dashboard",
		Summary:     "Admin dashboard",
		Description: "Returns catalog and reader totals, the most favorited books, and books per category",
		Tags:        []string{"Admin"},
		Security:    bearer,
	}, s.handleGetDashboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/reindex",
		Summary:     "Rebuild search index",
		Description: "Rebuilds the full-text index from the catalog",
		Tags:        []string{"Admin"},
		Security:    bearer,
	}, s.handleReindex)
}

// DashboardOutput wraps dashboard stats for Huma.
type DashboardOutput struct {
	Body *service.DashboardStats
}

// ReindexResponse reports a rebuilt index.
type ReindexResponse struct {
	Indexed int `json:"indexed" doc:"Books indexed"`
}

// ReindexOutput wraps the reindex response for Huma.
type ReindexOutput struct {
	Body ReindexResponse
}

func (s *Server) handleGetDashboard(ctx context.Context, _ *struct{}) (*DashboardOutput, error) {
	stats, err := s.services.Dashboard.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardOutput{Body: stats}, nil
}

func (s *Server) handleReindex(ctx context.Context, _ *struct{}) (*ReindexOutput, error) {
	n, err := s.services.Book.ReindexAll(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("search index rebuilt", "books", n)
	return &ReindexOutput{Body: ReindexResponse{Indexed: n}}, nil
}
