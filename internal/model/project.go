package model

import "time"

// Project is a user's single editable image workspace. Each project owns a
// storage root under which its assets, current image and history snapshots
// live. Deletion is soft: DeletedAt is stamped and the row is retained.
type Project struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description,omitempty"`
	StoragePath string     `db:"storage_path" json:"storage_path"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
