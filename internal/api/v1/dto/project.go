package dto

import "time"

// ProjectCreateDTO is used for incoming project creation requests
type ProjectCreateDTO struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty"`
}

// ProjectUpdateDTO is used for incoming project update requests
type ProjectUpdateDTO struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty"`
}

// ProjectResponseDTO is returned in API responses for projects
type ProjectResponseDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	StoragePath string    `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
