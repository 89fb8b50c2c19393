package reservations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/voyage-res/voyage-res/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	ListReservations(ctx context.Context, req ListRequest) ([]Reservation, error)
	CountReservations(ctx context.Context, req ListRequest) (int, error)
	GetReservation(ctx context.Context, id int64) (Reservation, error)
	CreateReservation(ctx context.Context, res Reservation) (Reservation, error)
	CancelReservation(ctx context.Context, id int64) error
}

// Service coordinates reservation operations.
type Service struct {
	repo  RepositoryPort
	clock func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{
		repo: repo,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// ListResult bundles a page with its pagination metadata.
type ListResult struct {
	Reservations []Reservation
	Paging       shared.Pagination
}

// List returns a page of reservations; rows and the total are fetched
// concurrently.
func (s *Service) List(ctx context.Context, req ListRequest) (ListResult, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PerPage <= 0 || req.PerPage > 100 {
		req.PerPage = 20
	}

	var (
		list  []Reservation
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.repo.ListReservations(gctx, req)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountReservations(gctx, req)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Reservations: list,
		Paging:       shared.NewPagination(req.Page, req.PerPage, total),
	}, nil
}

// Get fetches a single reservation.
func (s *Service) Get(ctx context.Context, id int64) (Reservation, error) {
	return s.repo.GetReservation(ctx, id)
}

// CreateInput carries the fields needed to book a reservation.
type CreateInput struct {
	PassengerName string
	FlightNumber  string
	TravelDate    time.Time
	CreatedBy     int64
}

// Create books a reservation and mints its confirmation code.
func (s *Service) Create(ctx context.Context, input CreateInput) (Reservation, error) {
	input.PassengerName = strings.TrimSpace(input.PassengerName)
	input.FlightNumber = strings.ToUpper(strings.TrimSpace(input.FlightNumber))
	if input.PassengerName == "" || input.FlightNumber == "" {
		return Reservation{}, fmt.Errorf("reservations: passenger and flight required: %w", shared.ErrInvalidArgument)
	}
	if input.TravelDate.Before(s.clock().Truncate(24 * time.Hour)) {
		return Reservation{}, fmt.Errorf("reservations: travel date in the past: %w", shared.ErrInvalidArgument)
	}
	return s.repo.CreateReservation(ctx, Reservation{
		Code:          strings.ToUpper(uuid.NewString()[:8]),
		PassengerName: input.PassengerName,
		FlightNumber:  input.FlightNumber,
		TravelDate:    input.TravelDate,
		Status:        StatusBooked,
		CreatedBy:     input.CreatedBy,
	})
}

// Cancel cancels a booked reservation.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	return s.repo.CancelReservation(ctx, id)
}
