// Package usecase implements the business logic for tracked-ticker operations.
package usecase

import (
	"context"

	"github.com/UWorldJK/stocks-etl/internal/feature/tickers/domain/entity"
)

// TickerRepository abstracts the persistence layer for tracked tickers.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type TickerRepository interface {
	ListActive(ctx context.Context) ([]entity.Ticker, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	SeedDefaults(ctx context.Context, codes []string) error
}

// TickerUsecase provides business logic for ticker operations.
type TickerUsecase struct {
	repo TickerRepository
}

// NewTickerUsecase creates a new TickerUsecase with the given repository.
func NewTickerUsecase(r TickerRepository) *TickerUsecase {
	return &TickerUsecase{repo: r}
}

// ActiveCodes returns the codes of all active tickers. When the table is
// empty it is first seeded with defaults, so a fresh deployment tracks the
// configured watchlist without manual setup.
func (u *TickerUsecase) ActiveCodes(ctx context.Context, defaults []string) ([]string, error) {
	codes, err := u.repo.ListActiveCodes(ctx)
	if err != nil {
		return nil, err
	}
	if len(codes) > 0 {
		return codes, nil
	}
	if err := u.repo.SeedDefaults(ctx, defaults); err != nil {
		return nil, err
	}
	return u.repo.ListActiveCodes(ctx)
}
