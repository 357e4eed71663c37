package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkurilov/shortly/internal/database"
	"github.com/dkurilov/shortly/internal/models"
)

type MockLinkRepository struct {
	mock.Mock
}

func (r *MockLinkRepository) Create(ctx context.Context, shortCode, originalURL, passwordHash string, expiresAt time.Time) (*models.ShortLink, error) {
	args := r.Called(ctx, shortCode, originalURL, passwordHash, expiresAt)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Error(1)
}

func (r *MockLinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.ShortLink, error) {
	args := r.Called(ctx, shortCode)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Error(1)
}

func (r *MockLinkRepository) RecordAccess(ctx context.Context, linkID int64, sourceAddr string) (*models.ShortLink, error) {
	args := r.Called(ctx, linkID, sourceAddr)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Error(1)
}

func (r *MockLinkRepository) ListAccessEvents(ctx context.Context, linkID int64) ([]models.AccessEvent, error) {
	args := r.Called(ctx, linkID)
	events, _ := args.Get(0).([]models.AccessEvent)
	return events, args.Error(1)
}

type LinkServiceTestSuite struct {
	suite.Suite
	errUnknown   error
	linkRepoMock *MockLinkRepository
	svc          *LinkService
}

func (suite *LinkServiceTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
}

func (suite *LinkServiceTestSuite) SetupSubTest() {
	suite.linkRepoMock = new(MockLinkRepository)
	suite.svc = NewLinkService(suite.linkRepoMock)
}

func (suite *LinkServiceTestSuite) TearDownSubTest() {
	suite.linkRepoMock.AssertExpectations(suite.T())
}

func (suite *LinkServiceTestSuite) TestShortenLink() {
	const originalURL = "https://example.com"
	shortCode := ShortCode(originalURL)

	suite.Run("unknown error", func() {
		suite.linkRepoMock.
			On("Create", context.Background(), shortCode, originalURL, "", mock.Anything).
			Once().
			Return(nil, suite.errUnknown)

		link, err := suite.svc.ShortenLink(context.Background(), originalURL, 24, "")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(link)
	})

	suite.Run("duplicate url returns existing link", func() {
		existing := &models.ShortLink{
			ID:          1,
			ShortCode:   shortCode,
			OriginalURL: originalURL,
		}

		suite.linkRepoMock.
			On("Create", context.Background(), shortCode, originalURL, "", mock.Anything).
			Once().
			Return(nil, database.ErrShortCodeExists)
		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), shortCode).
			Once().
			Return(existing, nil)

		link, err := suite.svc.ShortenLink(context.Background(), originalURL, 24, "")

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal(existing, link)
	})

	suite.Run("short code conflict with distinct url", func() {
		existing := &models.ShortLink{
			ID:          1,
			ShortCode:   shortCode,
			OriginalURL: "https://another-example.com",
		}

		suite.linkRepoMock.
			On("Create", context.Background(), shortCode, originalURL, "", mock.Anything).
			Once().
			Return(nil, database.ErrShortCodeExists)
		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), shortCode).
			Once().
			Return(existing, nil)

		link, err := suite.svc.ShortenLink(context.Background(), originalURL, 24, "")

		suite.Error(err)
		suite.ErrorIs(err, ErrShortCodeConflict)
		suite.Nil(link)
	})

	suite.Run("success without password", func() {
		suite.linkRepoMock.
			On("Create", context.Background(), shortCode, originalURL, "", mock.Anything).
			Once().
			Return(&models.ShortLink{
				ID:          1,
				ShortCode:   shortCode,
				OriginalURL: originalURL,
			}, nil)

		link, err := suite.svc.ShortenLink(context.Background(), originalURL, 24, "")

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal(shortCode, link.ShortCode)
		suite.Equal(originalURL, link.OriginalURL)
		suite.Zero(link.AccessCount)
	})

	suite.Run("success with password", func() {
		hashMatcher := mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("qwerty")) == nil
		})

		suite.linkRepoMock.
			On("Create", context.Background(), shortCode, originalURL, hashMatcher, mock.Anything).
			Once().
			Return(&models.ShortLink{
				ID:          1,
				ShortCode:   shortCode,
				OriginalURL: originalURL,
			}, nil)

		link, err := suite.svc.ShortenLink(context.Background(), originalURL, 24, "qwerty")

		suite.NoError(err)
		suite.NotNil(link)
	})

	suite.Run("expiration window", func() {
		wantExpiresAt := time.Now().UTC().Add(48 * time.Hour)
		expiresAtMatcher := mock.MatchedBy(func(expiresAt time.Time) bool {
			return expiresAt.Sub(wantExpiresAt).Abs() < time.Minute
		})

		suite.linkRepoMock.
			On("Create", context.Background(), shortCode, originalURL, "", expiresAtMatcher).
			Once().
			Return(&models.ShortLink{
				ID:          1,
				ShortCode:   shortCode,
				OriginalURL: originalURL,
			}, nil)

		link, err := suite.svc.ShortenLink(context.Background(), originalURL, 48, "")

		suite.NoError(err)
		suite.NotNil(link)
	})
}

func (suite *LinkServiceTestSuite) TestResolveLink() {
	const originalURL = "https://example.com"

	activeLink := func() *models.ShortLink {
		return &models.ShortLink{
			ID:          1,
			ShortCode:   "abc123",
			OriginalURL: originalURL,
			ExpiresAt:   time.Now().UTC().Add(time.Hour),
		}
	}

	suite.Run("link not found", func() {
		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(nil, database.ErrLinkNotFound)

		link, err := suite.svc.ResolveLink(context.Background(), "abc123", "", "127.0.0.1")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrLinkNotFound)
		suite.Nil(link)
	})

	suite.Run("link expired", func() {
		expired := activeLink()
		expired.ExpiresAt = time.Now().UTC().Add(-time.Hour)

		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(expired, nil)

		link, err := suite.svc.ResolveLink(context.Background(), "abc123", "", "127.0.0.1")

		suite.Error(err)
		suite.ErrorIs(err, ErrLinkExpired)
		suite.Nil(link)
		suite.linkRepoMock.AssertNotCalled(suite.T(), "RecordAccess", mock.Anything, mock.Anything, mock.Anything)
	})

	suite.Run("expiry check precedes password check", func() {
		expired := activeLink()
		expired.ExpiresAt = time.Now().UTC().Add(-time.Hour)
		expired.PasswordHash = "some hash"

		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(expired, nil)

		link, err := suite.svc.ResolveLink(context.Background(), "abc123", "", "127.0.0.1")

		suite.Error(err)
		suite.ErrorIs(err, ErrLinkExpired)
		suite.Nil(link)
	})

	suite.Run("password required", func() {
		protected := activeLink()
		hash, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.MinCost)
		suite.Require().NoError(err)
		protected.PasswordHash = string(hash)

		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(protected, nil)

		link, err := suite.svc.ResolveLink(context.Background(), "abc123", "", "127.0.0.1")

		suite.Error(err)
		suite.ErrorIs(err, ErrPasswordRequired)
		suite.Nil(link)
		suite.linkRepoMock.AssertNotCalled(suite.T(), "RecordAccess", mock.Anything, mock.Anything, mock.Anything)
	})

	suite.Run("password incorrect", func() {
		protected := activeLink()
		hash, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.MinCost)
		suite.Require().NoError(err)
		protected.PasswordHash = string(hash)

		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(protected, nil)

		link, err := suite.svc.ResolveLink(context.Background(), "abc123", "hunter2", "127.0.0.1")

		suite.Error(err)
		suite.ErrorIs(err, ErrPasswordIncorrect)
		suite.Nil(link)
	})

	suite.Run("success with correct password", func() {
		protected := activeLink()
		hash, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.MinCost)
		suite.Require().NoError(err)
		protected.PasswordHash = string(hash)

		resolved := *protected
		resolved.AccessCount = 1

		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(protected, nil)
		suite.linkRepoMock.
			On("RecordAccess", context.Background(), int64(1), "127.0.0.1").
			Once().
			Return(&resolved, nil)

		link, err := suite.svc.ResolveLink(context.Background(), "abc123", "qwerty", "127.0.0.1")

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal(originalURL, link.OriginalURL)
		suite.Equal(int64(1), link.AccessCount)
	})

	suite.Run("success without password", func() {
		active := activeLink()
		resolved := *active
		resolved.AccessCount = 1

		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(active, nil)
		suite.linkRepoMock.
			On("RecordAccess", context.Background(), int64(1), "127.0.0.1").
			Once().
			Return(&resolved, nil)

		link, err := suite.svc.ResolveLink(context.Background(), "abc123", "", "127.0.0.1")

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal(originalURL, link.OriginalURL)
		suite.Equal(int64(1), link.AccessCount)
	})

	suite.Run("record access error", func() {
		active := activeLink()

		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(active, nil)
		suite.linkRepoMock.
			On("RecordAccess", context.Background(), int64(1), "127.0.0.1").
			Once().
			Return(nil, suite.errUnknown)

		link, err := suite.svc.ResolveLink(context.Background(), "abc123", "", "127.0.0.1")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(link)
	})
}

func (suite *LinkServiceTestSuite) TestGetLinkAnalytics() {
	suite.Run("link not found", func() {
		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(nil, database.ErrLinkNotFound)

		link, events, err := suite.svc.GetLinkAnalytics(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrLinkNotFound)
		suite.Nil(link)
		suite.Nil(events)
	})

	suite.Run("list events error", func() {
		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(&models.ShortLink{ID: 1, ShortCode: "abc123"}, nil)
		suite.linkRepoMock.
			On("ListAccessEvents", context.Background(), int64(1)).
			Once().
			Return(nil, suite.errUnknown)

		link, events, err := suite.svc.GetLinkAnalytics(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(link)
		suite.Nil(events)
	})

	suite.Run("success", func() {
		wantEvents := []models.AccessEvent{
			{ID: 1, LinkID: 1, SourceAddr: "127.0.0.1"},
			{ID: 2, LinkID: 1, SourceAddr: "192.168.0.10"},
		}

		suite.linkRepoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(&models.ShortLink{
				ID:          1,
				ShortCode:   "abc123",
				OriginalURL: "https://example.com",
				AccessCount: 2,
			}, nil)
		suite.linkRepoMock.
			On("ListAccessEvents", context.Background(), int64(1)).
			Once().
			Return(wantEvents, nil)

		link, events, err := suite.svc.GetLinkAnalytics(context.Background(), "abc123")

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal(int64(2), link.AccessCount)
		suite.Equal(wantEvents, events)
	})
}

func TestLinkService(t *testing.T) {
	suite.Run(t, new(LinkServiceTestSuite))
}
