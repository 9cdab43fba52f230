// Package history answers questions about a user's past meals and profile.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Compile-time interface check
var _ interfaces.HistoryService = (*Service)(nil)

// Service implements HistoryService
type Service struct {
	storage interfaces.StorageManager
	images  interfaces.ImageStore
	logger  *common.Logger
}

// NewService creates a new history service. images may be nil, in which
// case Clear leaves stored photos in place.
func NewService(storage interfaces.StorageManager, images interfaces.ImageStore, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		images:  images,
		logger:  logger,
	}
}

func requireUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username is required", interfaces.ErrInvalidInput)
	}
	return username, nil
}

// History returns the user's analyses newest first.
func (s *Service) History(ctx context.Context, username string, limit int) ([]*models.Analysis, error) {
	username, err := requireUsername(username)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	list, err := s.storage.AnalysisStore().ListByUser(ctx, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return list, nil
}

// MealVector sums [L1, L2, L3, L4, oil, salt] over the user's analyses
// created on day's calendar date (in day's location) within the meal window.
func (s *Service) MealVector(ctx context.Context, username string, meal models.MealTime, day time.Time) (models.NutritionVector, error) {
	var vec models.NutritionVector
	username, err := requireUsername(username)
	if err != nil {
		return vec, err
	}
	if _, err := models.ParseMealTime(string(meal)); err != nil {
		return vec, fmt.Errorf("%w: %v", interfaces.ErrInvalidInput, err)
	}

	loc := day.Location()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	list, err := s.storage.AnalysisStore().ListByUserSince(ctx, username, start)
	if err != nil {
		return vec, fmt.Errorf("failed to list meals: %w", err)
	}

	n := 0
	for _, a := range list {
		created := a.CreatedAt.In(loc)
		if created.Before(start) || !created.Before(end) || !meal.Contains(created) {
			continue
		}
		vec.Add(a.Report.Pyramid())
		n++
	}

	s.logger.Debug().
		Str("username", username).
		Str("meal", string(meal)).
		Str("date", start.Format("2006-01-02")).
		Int("records", n).
		Msg("Meal vector computed")
	return vec, nil
}

// Summary returns the tier totals of one analysis.
func (s *Service) Summary(ctx context.Context, id string) (*models.NutritionSummary, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	sum := a.Summary()
	return &sum, nil
}

// IngredientCount counts the ingredients of one analysis.
func (s *Service) IngredientCount(ctx context.Context, id string) (*models.IngredientCount, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	count := a.IngredientCount()
	return &count, nil
}

func (s *Service) get(ctx context.Context, id string) (*models.Analysis, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", interfaces.ErrInvalidInput)
	}
	a, err := s.storage.AnalysisStore().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis %s: %w", id, err)
	}
	return a, nil
}

// Clear deletes every analysis of the user and their stored photos.
// Returns the number of analyses removed.
func (s *Service) Clear(ctx context.Context, username string) (int, error) {
	username, err := requireUsername(username)
	if err != nil {
		return 0, err
	}

	if s.images != nil {
		list, err := s.storage.AnalysisStore().ListByUser(ctx, username, 0)
		if err != nil {
			return 0, fmt.Errorf("failed to list history: %w", err)
		}
		for _, a := range list {
			if a.ImageKey == "" {
				continue
			}
			if err := s.images.Delete(ctx, a.ImageKey); err != nil {
				s.logger.Warn().Err(err).Str("key", a.ImageKey).Msg("Failed to delete image")
			}
		}
	}

	n, err := s.storage.AnalysisStore().DeleteByUser(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	s.logger.Info().Str("username", username).Int("count", n).Msg("History cleared")
	return n, nil
}

// GetProfile returns the stored profile, or an anonymous one for users who
// never saved a nickname.
func (s *Service) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	username, err := requireUsername(username)
	if err != nil {
		return nil, err
	}
	p, err := s.storage.ProfileStore().Get(ctx, username)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return &models.Profile{Username: username, Nickname: models.AnonymousNickname}, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// SaveProfile sets the user's nickname and avatar.
func (s *Service) SaveProfile(ctx context.Context, username, nickname, avatarURL string) (*models.Profile, error) {
	username, err := requireUsername(username)
	if err != nil {
		return nil, err
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, fmt.Errorf("%w: nickname is required", interfaces.ErrInvalidInput)
	}

	p := &models.Profile{
		Username:  username,
		Nickname:  nickname,
		AvatarURL: strings.TrimSpace(avatarURL),
	}
	if existing, err := s.storage.ProfileStore().Get(ctx, username); err == nil {
		p.CreatedAt = existing.CreatedAt
	}
	if err := s.storage.ProfileStore().Put(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	s.logger.Info().Str("username", username).Msg("Profile saved")
	return p, nil
}
