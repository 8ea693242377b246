package directory

import (
	"context"

	"github.com/google/uuid"
)

type PharmacyRepository interface {
	Create(ctx context.Context, p *Pharmacy) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pharmacy, error)
	List(ctx context.Context, limit, offset int) ([]*Pharmacy, int, error)
	ListAll(ctx context.Context) ([]*Pharmacy, error)
}
