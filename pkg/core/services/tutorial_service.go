package services

import (
	"context"
	"strings"
	"time"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

// TutorialService records which onboarding tours were finished.
type TutorialService struct {
	repo ports.TutorialRepository
	now  func() time.Time
}

func NewTutorialService(repo ports.TutorialRepository) *TutorialService {
	return &TutorialService{repo: repo, now: time.Now}
}

func (s *TutorialService) IsCompleted(ctx context.Context, feature string) (bool, error) {
	key, err := tutorialKey(feature)
	if err != nil {
		return false, err
	}
	st, err := s.repo.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return st != nil && st.Completed, nil
}

func (s *TutorialService) Complete(ctx context.Context, feature string) error {
	key, err := tutorialKey(feature)
	if err != nil {
		return err
	}
	return s.repo.MarkCompleted(ctx, key, s.now().UTC())
}

func (s *TutorialService) Reset(ctx context.Context, feature string) error {
	key, err := tutorialKey(feature)
	if err != nil {
		return err
	}
	return s.repo.Reset(ctx, key)
}

func (s *TutorialService) List(ctx context.Context) ([]domain.TutorialState, error) {
	return s.repo.List(ctx)
}

func tutorialKey(feature string) (string, error) {
	feature = strings.TrimSpace(feature)
	if feature == "" {
		return "", &domain.ValidationError{Reason: "feature is required"}
	}
	return domain.TutorialKey(feature), nil
}

// Ensure interface compliance
var _ ports.TutorialService = (*TutorialService)(nil)
