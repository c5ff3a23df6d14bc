package service

import (
	"context"
	"fmt"

	"github.com/okian/epvprep/internal/adapters/repository"
	"github.com/okian/epvprep/internal/domain/model"
	"github.com/okian/epvprep/internal/domain/tally"
	"github.com/okian/epvprep/pkg/logger"
)

// Tally counts actions and goals across every match file in dir.
func (s *Service) Tally(ctx context.Context, dir string) (*tally.Tally, error) {
	t := tally.New()
	n, err := readAll(ctx, repository.NewFileStore(dir), func(matchID string, events []model.Event) {
		t.Add(matchID, events)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "tally finished",
		logger.String("dir", dir),
		logger.Int("matches", n),
		logger.Int("events", t.Total()),
	)
	return t, nil
}

// Check summarizes one match file in dir. An empty matchID picks the first
// match in id order.
func (s *Service) Check(ctx context.Context, dir, matchID string) (string, tally.Inspection, error) {
	store := repository.NewFileStore(dir)
	if matchID == "" {
		ids, err := store.ListMatches(ctx)
		if err != nil {
			return "", tally.Inspection{}, err
		}
		if len(ids) == 0 {
			return "", tally.Inspection{}, fmt.Errorf("%w: %s", ErrNoMatches, dir)
		}
		matchID = ids[0]
	}
	events, err := store.ReadEvents(ctx, matchID)
	if err != nil {
		return matchID, tally.Inspection{}, err
	}
	return matchID, tally.Inspect(events), nil
}
