package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dkurilov/shortly/internal/database"
	"github.com/dkurilov/shortly/internal/models"
)

var (
	// ErrShortCodeConflict is returned when two distinct URLs derive the same short code.
	ErrShortCodeConflict = errors.New("short code conflicts with a different url")
	// ErrLinkExpired is returned when a link is resolved past its expiration timestamp.
	ErrLinkExpired = errors.New("link expired")
	// ErrPasswordRequired is returned when a protected link is resolved without a password.
	ErrPasswordRequired = errors.New("password required")
	// ErrPasswordIncorrect is returned when the supplied password doesn't match the link password.
	ErrPasswordIncorrect = errors.New("password incorrect")
)

// LinkRepository defines the interface for working with links at the business logic layer.
type LinkRepository interface {
	// Create inserts a new short link into the repository.
	// Returns the created link model or an error if the operation fails.
	Create(ctx context.Context, shortCode, originalURL, passwordHash string, expiresAt time.Time) (*models.ShortLink, error)

	// GetByShortCode retrieves a link by its short code without side effects.
	// Returns the link model if found or an error if not found.
	GetByShortCode(ctx context.Context, shortCode string) (*models.ShortLink, error)

	// RecordAccess persists an access event and increments the access counter
	// as a single atomic unit. Returns the updated link model.
	RecordAccess(ctx context.Context, linkID int64, sourceAddr string) (*models.ShortLink, error)

	// ListAccessEvents retrieves all access events for a link in insertion order.
	ListAccessEvents(ctx context.Context, linkID int64) ([]models.AccessEvent, error)
}

// LinkService provides methods to manage URL shortening operations.
// The service uses a LinkRepository interface to interact with the underlying database.
type LinkService struct {
	repo LinkRepository
}

// NewLinkService creates a new instance of LinkService with the provided repository.
func NewLinkService(repo LinkRepository) *LinkService {
	return &LinkService{
		repo: repo,
	}
}

// ShortenLink derives a short code for the original URL and stores it in the
// repository with an expiration window of expirationHours and an optional
// password. Shortening the same URL again returns the existing link. When a
// different URL derives an already-taken short code, ErrShortCodeConflict is
// returned.
func (s *LinkService) ShortenLink(ctx context.Context, originalURL string, expirationHours int, password string) (*models.ShortLink, error) {
	const op = "service.LinkService.ShortenLink"

	var passwordHash string
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
		}

		passwordHash = string(hash)
	}

	shortCode := ShortCode(originalURL)
	expiresAt := time.Now().UTC().Add(time.Duration(expirationHours) * time.Hour)

	link, err := s.repo.Create(ctx, shortCode, originalURL, passwordHash, expiresAt)
	if err != nil {
		if errors.Is(err, database.ErrShortCodeExists) {
			existing, err := s.repo.GetByShortCode(ctx, shortCode)
			if err != nil {
				return nil, fmt.Errorf("%s: failed to get existing link: %w", op, err)
			}

			if existing.OriginalURL == originalURL {
				return existing, nil
			}

			return nil, fmt.Errorf("%s: %w", op, ErrShortCodeConflict)
		}

		return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
	}

	return link, nil
}

// ResolveLink retrieves the original URL associated with the provided short
// code, records the access and increments the access counter. The expiry
// check always precedes the password checks. No access event is recorded
// when any check fails.
func (s *LinkService) ResolveLink(ctx context.Context, shortCode, password, sourceAddr string) (*models.ShortLink, error) {
	const op = "service.LinkService.ResolveLink"

	link, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if time.Now().UTC().After(link.ExpiresAt) {
		return nil, fmt.Errorf("%s: %w", op, ErrLinkExpired)
	}

	if link.PasswordHash != "" {
		if password == "" {
			return nil, fmt.Errorf("%s: %w", op, ErrPasswordRequired)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(link.PasswordHash), []byte(password)); err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrPasswordIncorrect)
		}
	}

	link, err = s.repo.RecordAccess(ctx, link.ID, sourceAddr)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to record access: %w", op, err)
	}

	return link, nil
}

// GetLinkAnalytics retrieves the link associated with the provided short code
// together with its full access log in chronological order.
func (s *LinkService) GetLinkAnalytics(ctx context.Context, shortCode string) (*models.ShortLink, []models.AccessEvent, error) {
	const op = "service.LinkService.GetLinkAnalytics"

	link, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	events, err := s.repo.ListAccessEvents(ctx, link.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to list access events: %w", op, err)
	}

	return link, events, nil
}
