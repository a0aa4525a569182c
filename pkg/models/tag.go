package models

import "time"

const (
	RoutineTagName        = "Routine"
	RoutineTagColor       = "#4B5563"
	RoutineTagDescription = "Added automatically to imported transactions"
)

type Tag struct {
	ID          int64
	Name        string
	Color       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoutineTag returns an unsaved copy of the tag attached to every imported
// transaction.
func RoutineTag() *Tag {
	return &Tag{
		Name:        RoutineTagName,
		Color:       RoutineTagColor,
		Description: RoutineTagDescription,
	}
}

type User struct {
	ID        int64
	Name      string
	CPF       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
