package http

import (
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/dkurilov/shortly/internal/database"
	"github.com/dkurilov/shortly/internal/models"
	"github.com/dkurilov/shortly/internal/service"
	"github.com/dkurilov/shortly/pkg/response"
)

// defaultExpirationHours applies when the shorten request omits the window.
const defaultExpirationHours = 24

// handleIndex handles liveness checks with a fixed payload.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"msg": "ok"})
}

// shortenRequest represents the request payload for creating a short link.
type shortenRequest struct {
	OriginalURL     string `json:"originalUrl" validate:"required,url"`
	ExpirationHours int    `json:"expirationHours" validate:"omitempty,gt=0"`
	Password        string `json:"password"`
}

// shortenResponse represents the response payload for a created short link.
type shortenResponse struct {
	ShortenedURL string `json:"shortenedUrl"`
}

// resolveResponse represents the response payload for a resolved short link.
type resolveResponse struct {
	RedirectTo string `json:"redirectTo"`
}

type accessLogEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	SourceAddress string    `json:"sourceAddress"`
}

// analyticsResponse represents the response payload for link analytics.
type analyticsResponse struct {
	OriginalURL string           `json:"originalUrl"`
	AccessCount int64            `json:"accessCount"`
	AccessLogs  []accessLogEntry `json:"accessLogs"`
}

// toAnalyticsResponse converts a link and its access events into a response payload.
func toAnalyticsResponse(link *models.ShortLink, events []models.AccessEvent) analyticsResponse {
	logs := make([]accessLogEntry, 0, len(events))
	for _, event := range events {
		logs = append(logs, accessLogEntry{
			Timestamp:     event.Timestamp,
			SourceAddress: event.SourceAddr,
		})
	}

	return analyticsResponse{
		OriginalURL: link.OriginalURL,
		AccessCount: link.AccessCount,
		AccessLogs:  logs,
	}
}

// sourceAddr extracts the caller address, stripping the port RemoteAddr carries
// on direct connections.
func sourceAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// handleShortenLink handles POST requests to shorten a URL.
//
// The request must contain a valid absolute URL and may carry an expiration
// window in hours and a password. The handler validates the input, calls the
// shortening service, and returns the full short URL.
func handleShortenLink(svc LinkService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleShortenLink"

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		if req.ExpirationHours == 0 {
			req.ExpirationHours = defaultExpirationHours
		}

		link, err := svc.ShortenLink(r.Context(), req.OriginalURL, req.ExpirationHours, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrShortCodeConflict) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.ShortCodeConflictResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, shortenResponse{ShortenedURL: baseURL + link.ShortCode})
	}
}

// handleResolveLink handles GET requests to resolve a short code into the original URL.
//
// The handler records the access and responds with the original URL for the
// caller to redirect to, or with an error when the link is unknown, expired,
// or the password check fails.
func handleResolveLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleResolveLink"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")
		password := r.URL.Query().Get("password")

		link, err := svc.ResolveLink(r.Context(), shortCode, password, sourceAddr(r))
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			if errors.Is(err, service.ErrLinkExpired) {
				render.Status(r, http.StatusGone)
				render.JSON(w, r, response.LinkExpiredResponse)
				return
			}

			if errors.Is(err, service.ErrPasswordRequired) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.PasswordRequiredResponse)
				return
			}

			if errors.Is(err, service.ErrPasswordIncorrect) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.PasswordIncorrectResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, resolveResponse{RedirectTo: link.OriginalURL})
	}
}

// handleGetLinkAnalytics handles GET requests to retrieve the access log for a short link.
//
// The handler fetches the original URL, the access count and every recorded
// access in chronological order, or a 404 error if the short code is unknown.
func handleGetLinkAnalytics(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleGetLinkAnalytics"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		link, events, err := svc.GetLinkAnalytics(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, toAnalyticsResponse(link, events))
	}
}
