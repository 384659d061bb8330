// Package httpadapter serves stored snapshots over a read-only JSON API.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	api "riskmap/internal/api"
	"riskmap/internal/domain"
	"riskmap/internal/ports"
)

// Server implements the generated StrictServerInterface. It answers "what
// was the rating at X" from the snapshot tables.
type Server struct {
	facts      ports.FactRepository
	urlRatings ports.UrlRatingRepository
	orgRatings ports.OrganizationRatingRepository
	now        ports.Clock
	logger     *zap.Logger
}

var _ api.StrictServerInterface = (*Server)(nil)

func New(facts ports.FactRepository, urlRatings ports.UrlRatingRepository, orgRatings ports.OrganizationRatingRepository, logger *zap.Logger, now ports.Clock) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Server{facts: facts, urlRatings: urlRatings, orgRatings: orgRatings, now: now, logger: logger}
}

// Routes returns a chi.Router mounting the generated handlers.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, s.accessLog)

	handler := api.NewStrictHandlerWithOptions(s, nil, api.StrictHTTPServerOptions{
		RequestErrorHandlerFunc:  s.badRequest,
		ResponseErrorHandlerFunc: s.internalError,
	})
	api.HandlerWithOptions(handler, api.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: s.badRequest,
	})
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) GetHealthz(ctx context.Context, _ api.GetHealthzRequestObject) (api.GetHealthzResponseObject, error) {
	return api.GetHealthz200JSONResponse{Status: "ok"}, nil
}

func (s *Server) GetUrlRating(ctx context.Context, req api.GetUrlRatingRequestObject) (api.GetUrlRatingResponseObject, error) {
	at, err := s.instant(req.Params.At)
	if err != nil {
		return api.GetUrlRating400JSONResponse{Error: err.Error()}, nil
	}
	if _, err := s.facts.GetUrlFacts(ctx, req.Id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return api.GetUrlRating404JSONResponse{Error: "url not found"}, nil
		}
		return nil, err
	}
	rating, found, err := s.urlRatings.LatestUrlRating(ctx, req.Id, at)
	if err != nil {
		return nil, err
	}
	if !found {
		return api.GetUrlRating404JSONResponse{Error: "url was not rated at that moment"}, nil
	}
	return api.GetUrlRating200JSONResponse(urlRating(rating)), nil
}

func (s *Server) ListUrlRatings(ctx context.Context, req api.ListUrlRatingsRequestObject) (api.ListUrlRatingsResponseObject, error) {
	ratings, err := s.urlRatings.ListUrlRatings(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	out := make(api.ListUrlRatings200JSONResponse, len(ratings))
	for i, r := range ratings {
		out[i] = urlRating(r)
	}
	return out, nil
}

func (s *Server) GetOrganizationRating(ctx context.Context, req api.GetOrganizationRatingRequestObject) (api.GetOrganizationRatingResponseObject, error) {
	at, err := s.instant(req.Params.At)
	if err != nil {
		return api.GetOrganizationRating400JSONResponse{Error: err.Error()}, nil
	}
	if _, err := s.facts.GetOrganization(ctx, req.Id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return api.GetOrganizationRating404JSONResponse{Error: "organization not found"}, nil
		}
		return nil, err
	}
	rating, found, err := s.orgRatings.LatestOrganizationRating(ctx, req.Id, at)
	if err != nil {
		return nil, err
	}
	if !found {
		return api.GetOrganizationRating404JSONResponse{Error: "organization was not rated at that moment"}, nil
	}
	return api.GetOrganizationRating200JSONResponse(organizationRating(rating)), nil
}

func (s *Server) ListOrganizationRatings(ctx context.Context, req api.ListOrganizationRatingsRequestObject) (api.ListOrganizationRatingsResponseObject, error) {
	ratings, err := s.orgRatings.ListOrganizationRatings(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	out := make(api.ListOrganizationRatings200JSONResponse, len(ratings))
	for i, r := range ratings {
		out[i] = organizationRating(r)
	}
	return out, nil
}

// instant reads the optional ?at= value, which defaults to now.
func (s *Server) instant(raw *string) (time.Time, error) {
	if raw == nil || *raw == "" {
		return s.now().UTC(), nil
	}
	at, err := domain.ParseInstant(*raw)
	if err != nil {
		return time.Time{}, errors.New("at must be RFC 3339 or YYYY-MM-DD")
	}
	return at, nil
}

func urlRating(r domain.UrlRating) api.UrlRating {
	return api.UrlRating{
		Id: r.ID, UrlId: r.UrlID, Moment: r.Moment,
		High: r.High, Medium: r.Medium, Low: r.Low, Calculation: r.Calculation,
	}
}

func organizationRating(r domain.OrganizationRating) api.OrganizationRating {
	return api.OrganizationRating{
		Id: r.ID, OrganizationId: r.OrganizationID, Moment: r.Moment, Rating: r.Rating,
		High: r.High, Medium: r.Medium, Low: r.Low, Calculation: r.Calculation,
	}
}

func (s *Server) badRequest(w http.ResponseWriter, _ *http.Request, err error) {
	writeError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: msg})
}
