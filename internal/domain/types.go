package domain

import "time"

// Container is the tenant scope that owns bins. RetentionDays controls how
// long trashed bins survive before the purger is allowed to remove them.
type Container struct {
	ID            string
	Name          string
	RetentionDays int
	CreatedAt     time.Time
}

type Area struct {
	ID          string
	ContainerID string
	Name        string
	CreatedAt   time.Time
}

// Bin is a tracked physical storage container. A bin with DeletedAt == nil is
// active; a non-nil DeletedAt means it sits in the trash and is hidden from
// normal queries until restored or permanently removed.
type Bin struct {
	ID          string
	ContainerID string
	Name        string
	AreaID      string // "" when the bin is not assigned to an area
	AreaName    string // denormalized from areas, never persisted
	Items       []string
	Notes       string
	Tags        []string
	Icon        string
	Color       string
	ShortCode   string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// Trashed reports whether the bin is soft-deleted.
func (b *Bin) Trashed() bool { return b.DeletedAt != nil }

// Photo is the database record for a stored photo. The row is authoritative;
// the file at StoragePath is a best-effort cache of the bytes.
type Photo struct {
	ID          string
	BinID       string
	Filename    string
	MimeType    string
	Size        int64
	StoragePath string
	CreatedBy   string
	CreatedAt   time.Time
}

// Actor identifies who performed an operation, for created_by stamping and
// activity logging. Authorization happens before calls reach this layer.
type Actor struct {
	ID   string
	Name string
}

// FieldChange is one entry of a field-level diff attached to an activity
// log record.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ActivityEntry is a fire-and-forget audit record.
type ActivityEntry struct {
	ContainerID string
	Actor       Actor
	Action      string
	EntityType  string
	EntityID    string
	EntityName  string
	Diff        map[string]FieldChange
}
