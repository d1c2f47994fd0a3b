package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/jominki354/hotstinder/models"
	"github.com/jominki354/hotstinder/repositories"
	"github.com/jominki354/hotstinder/storage"
)

// ReplayService хранит файлы реплеев завершённых матчей во внешнем
// объектном хранилище и привязывает ключ объекта к матчу.
type ReplayService interface {
	Upload(ctx context.Context, matchID int, contentType string, r io.Reader) (string, error)
	PublicURL(match *models.Match) string
}

type replayService struct {
	matchRepo repositories.MatchRepository
	uploader  storage.FileUploader
}

func NewReplayService(matchRepo repositories.MatchRepository, uploader storage.FileUploader) ReplayService {
	return &replayService{matchRepo: matchRepo, uploader: uploader}
}

func (s *replayService) Upload(ctx context.Context, matchID int, contentType string, r io.Reader) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("%w: replay storage is not configured", ErrReplayNotAllowed)
	}

	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return "", ErrMatchNotFound
		}
		return "", err
	}
	if match.Status != models.StatusCompleted {
		return "", fmt.Errorf("%w: match is %q", ErrReplayNotAllowed, match.Status)
	}

	key := fmt.Sprintf("replays/%d/%s.StormReplay", matchID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, contentType, r)
	if err != nil {
		return "", fmt.Errorf("failed to upload replay for match %d: %w", matchID, err)
	}

	if err := s.matchRepo.SetReplayKey(ctx, nil, matchID, &result.Key); err != nil {
		// Привязка не записалась — осиротевший объект убирается сразу.
		_ = s.uploader.Delete(ctx, result.Key)
		return "", err
	}

	// Старый реплей (повторная загрузка) удаляется после успешной замены.
	if match.ReplayKey != nil && *match.ReplayKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *match.ReplayKey); delErr != nil {
			return result.Location, nil
		}
	}

	return result.Location, nil
}

func (s *replayService) PublicURL(match *models.Match) string {
	if s.uploader == nil || match == nil || match.ReplayKey == nil {
		return ""
	}
	return s.uploader.GetPublicURL(*match.ReplayKey)
}
