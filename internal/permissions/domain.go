package permissions

import "time"

// Permission represents an atomic capability in the catalog. The name is the
// stable identifier authorization checks use; it is immutable after creation
// and must never be reused for a different capability. Only the description
// may be edited.
type Permission struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}
