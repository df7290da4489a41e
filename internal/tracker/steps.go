package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/starford/clovern/internal/apperr"
	"github.com/starford/clovern/internal/models"
)

// InitSteps seeds the default checklist on an application that has none.
func (s *Store) InitSteps(ctx context.Context, appID string) (models.JobApplication, error) {
	return s.editSteps(ctx, appID, func(steps []models.Step) ([]models.Step, error) {
		if len(steps) > 0 {
			return nil, errNoChange
		}
		return models.DefaultSteps(), nil
	})
}

// ToggleStep flips the completion of one checklist step.
func (s *Store) ToggleStep(ctx context.Context, appID, stepID string) (models.JobApplication, error) {
	return s.editSteps(ctx, appID, func(steps []models.Step) ([]models.Step, error) {
		steps = withDefaults(steps)
		i := slices.IndexFunc(steps, func(st models.Step) bool { return st.ID == stepID })
		if i < 0 {
			return nil, fmt.Errorf("step %s: %w", stepID, apperr.ErrNotFound)
		}
		steps[i].Completed = !steps[i].Completed
		return steps, nil
	})
}

// AddStep appends a custom step to the checklist.
func (s *Store) AddStep(ctx context.Context, appID, label string) (models.JobApplication, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return models.JobApplication{}, fmt.Errorf("%w: step label is required", apperr.ErrInvalidInput)
	}
	return s.editSteps(ctx, appID, func(steps []models.Step) ([]models.Step, error) {
		steps = withDefaults(steps)
		ms := s.now().UnixMilli()
		id := "custom-" + strconv.FormatInt(ms, 10)
		for slices.ContainsFunc(steps, func(st models.Step) bool { return st.ID == id }) {
			ms++
			id = "custom-" + strconv.FormatInt(ms, 10)
		}
		return append(steps, models.Step{ID: id, Label: label}), nil
	})
}

// DeleteStep removes one checklist step.
func (s *Store) DeleteStep(ctx context.Context, appID, stepID string) (models.JobApplication, error) {
	return s.editSteps(ctx, appID, func(steps []models.Step) ([]models.Step, error) {
		steps = withDefaults(steps)
		i := slices.IndexFunc(steps, func(st models.Step) bool { return st.ID == stepID })
		if i < 0 {
			return nil, fmt.Errorf("step %s: %w", stepID, apperr.ErrNotFound)
		}
		return slices.Delete(steps, i, i+1), nil
	})
}

var errNoChange = errors.New("no change")

func (s *Store) editSteps(ctx context.Context, appID string, edit func([]models.Step) ([]models.Step, error)) (models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.appIndex(appID)
	if i < 0 {
		return models.JobApplication{}, apperr.ErrNotFound
	}
	app := s.apps[i].Clone()
	steps, err := edit(app.Steps)
	if errors.Is(err, errNoChange) {
		return app, nil
	}
	if err != nil {
		return models.JobApplication{}, err
	}
	app.Steps = steps
	s.touch(&app)
	s.apps[i] = app
	return app.Clone(), s.commit(ctx, Change{Kind: ApplicationUpdated, IDs: []string{appID}})
}

// withDefaults returns steps, or the default checklist when there are none.
func withDefaults(steps []models.Step) []models.Step {
	if len(steps) == 0 {
		return models.DefaultSteps()
	}
	return steps
}
