package directory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pharmacyRepoPG struct{ pool *pgxpool.Pool }

func NewPharmacyRepoPG(pool *pgxpool.Pool) PharmacyRepository {
	return &pharmacyRepoPG{pool: pool}
}

const pharmacyCols = `id, name, address, phone, zip_code, latitude, longitude, created_at, updated_at`

func scanPharmacy(row pgx.Row) (*Pharmacy, error) {
	var p Pharmacy
	err := row.Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.ZipCode,
		&p.Latitude, &p.Longitude, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *pharmacyRepoPG) Create(ctx context.Context, p *Pharmacy) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pharmacies (id, name, address, phone, zip_code, latitude, longitude)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.Name, p.Address, p.Phone, p.ZipCode, p.Latitude, p.Longitude)
	return err
}

func (r *pharmacyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Pharmacy, error) {
	return scanPharmacy(r.pool.QueryRow(ctx, `SELECT `+pharmacyCols+` FROM pharmacies WHERE id = $1`, id))
}

func (r *pharmacyRepoPG) List(ctx context.Context, limit, offset int) ([]*Pharmacy, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pharmacies`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+pharmacyCols+` FROM pharmacies ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Pharmacy
	for rows.Next() {
		p, err := scanPharmacy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *pharmacyRepoPG) ListAll(ctx context.Context) ([]*Pharmacy, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pharmacyCols+` FROM pharmacies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Pharmacy
	for rows.Next() {
		p, err := scanPharmacy(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
