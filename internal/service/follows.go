package service

import (
	"context"
	"fmt"

	"signalshub/internal/apperr"
	"signalshub/internal/repository"
)

// FollowService keeps each user's list of followed analysts. Follower
// counts on analyst stats are derived by the analyst rebuild.
type FollowService struct {
	Repo repository.Repository
}

func validateFollow(userFid, analystFid int64) error {
	if userFid <= 0 || analystFid <= 0 {
		return fmt.Errorf("%w: userFid and analystFid must be positive", apperr.ErrInvalidInput)
	}
	if userFid == analystFid {
		return fmt.Errorf("%w: cannot follow yourself", apperr.ErrInvalidInput)
	}
	return nil
}

func (s *FollowService) Follow(ctx context.Context, userFid, analystFid int64) ([]int64, error) {
	if err := validateFollow(userFid, analystFid); err != nil {
		return nil, err
	}
	return s.Repo.UpdateFollows(ctx, userFid, func(items []int64) ([]int64, error) {
		for _, f := range items {
			if f == analystFid {
				return items, nil
			}
		}
		return append(items, analystFid), nil
	})
}

func (s *FollowService) Unfollow(ctx context.Context, userFid, analystFid int64) ([]int64, error) {
	if err := validateFollow(userFid, analystFid); err != nil {
		return nil, err
	}
	return s.Repo.UpdateFollows(ctx, userFid, func(items []int64) ([]int64, error) {
		out := items[:0]
		for _, f := range items {
			if f != analystFid {
				out = append(out, f)
			}
		}
		return out, nil
	})
}

func (s *FollowService) List(ctx context.Context, userFid int64) ([]int64, error) {
	if userFid <= 0 {
		return nil, fmt.Errorf("%w: fid must be positive", apperr.ErrInvalidInput)
	}
	return s.Repo.ListFollows(ctx, userFid)
}
