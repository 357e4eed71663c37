package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"

	"github.com/dkurilov/shortly/internal/models"
)

// LinkService defines the interface for the core URL shortening business logic.
type LinkService interface {
	// ShortenLink creates a short link for the provided original URL with the
	// given expiration window in hours and an optional password.
	// It returns the link details or an error if the operation fails.
	ShortenLink(ctx context.Context, originalURL string, expirationHours int, password string) (*models.ShortLink, error)

	// ResolveLink retrieves the original URL for a given short code and
	// records the access. It returns the link details or an error if the link
	// is not found, expired or the password check fails.
	ResolveLink(ctx context.Context, shortCode, password, sourceAddr string) (*models.ShortLink, error)

	// GetLinkAnalytics retrieves the link associated with the short code
	// together with its full access log in chronological order.
	GetLinkAnalytics(ctx context.Context, shortCode string) (*models.ShortLink, []models.AccessEvent, error)
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
// The baseURL prefix is used when composing full short URLs.
func NewRouter(logger *httplog.Logger, linkSvc LinkService, baseURL string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	validate := getValidate()

	r.Get("/", handleIndex)
	r.Post("/shorten", handleShortenLink(linkSvc, validate, baseURL))
	r.Get("/analytics/{shortCode}", handleGetLinkAnalytics(linkSvc))
	r.Get("/{shortCode}", handleResolveLink(linkSvc))

	return r
}
