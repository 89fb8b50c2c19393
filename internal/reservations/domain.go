package reservations

import "time"

// Status tracks the reservation lifecycle.
type Status string

const (
	StatusBooked    Status = "BOOKED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Reservation represents a booked seat on a flight. Code is the confirmation
// reference handed to the passenger.
type Reservation struct {
	ID            int64
	Code          string
	PassengerName string
	FlightNumber  string
	TravelDate    time.Time
	Status        Status
	CreatedBy     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListRequest filters reservation listings.
type ListRequest struct {
	FlightNumber string
	Status       *Status
	Page         int
	PerPage      int
}
