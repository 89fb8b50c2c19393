package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyage-res/voyage-res/internal/shared"
)

var (
	// ErrNotFound indicates the reservation does not exist.
	ErrNotFound = fmt.Errorf("reservations: %w", shared.ErrNotFound)
	// ErrAlreadyCancelled indicates the reservation was cancelled before.
	ErrAlreadyCancelled = fmt.Errorf("reservations: already cancelled: %w", shared.ErrConflict)
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const reservationColumns = `id, code, passenger_name, flight_number, travel_date, status, created_by, created_at, updated_at`

// ListReservations returns a page of reservations matching the filters.
func (r *Repository) ListReservations(ctx context.Context, req ListRequest) ([]Reservation, error) {
	offset := (req.Page - 1) * req.PerPage
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE ($1 = '' OR flight_number = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY travel_date DESC, id DESC
		LIMIT $3 OFFSET $4`, req.FlightNumber, req.Status, req.PerPage, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// CountReservations returns the total matching the filters.
func (r *Repository) CountReservations(ctx context.Context, req ListRequest) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE ($1 = '' OR flight_number = $1)
		  AND ($2::text IS NULL OR status = $2)`, req.FlightNumber, req.Status).Scan(&total)
	return total, err
}

// GetReservation fetches a reservation by id.
func (r *Repository) GetReservation(ctx context.Context, id int64) (Reservation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, err
	}
	return res, nil
}

// CreateReservation inserts a new reservation.
func (r *Repository) CreateReservation(ctx context.Context, res Reservation) (Reservation, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reservations (code, passenger_name, flight_number, travel_date, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING `+reservationColumns, res.Code, res.PassengerName, res.FlightNumber, res.TravelDate, res.Status, res.CreatedBy)
	return scanReservation(row)
}

// CancelReservation flips a booked reservation to cancelled.
func (r *Repository) CancelReservation(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reservations SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`, id, StatusCancelled, StatusBooked)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetReservation(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyCancelled
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (Reservation, error) {
	var res Reservation
	err := row.Scan(&res.ID, &res.Code, &res.PassengerName, &res.FlightNumber, &res.TravelDate, &res.Status, &res.CreatedBy, &res.CreatedAt, &res.UpdatedAt)
	return res, err
}
