package models

import (
	"time"

	"gorm.io/gorm"
)

// TodoState is the closed set of states a todo can be in. Anything else is
// rejected at the boundary before it reaches the database.
type TodoState string

const (
	StateDraft TodoState = "draft"
	StateTodo  TodoState = "todo"
	StateDoing TodoState = "doing"
	StateDone  TodoState = "done"
	StateTrash TodoState = "trash"
)

func (s TodoState) Valid() bool {
	switch s {
	case StateDraft, StateTodo, StateDoing, StateDone, StateTrash:
		return true
	}
	return false
}

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null"                 json:"name"`
	Email     string    `gorm:"unique;not null"          json:"email"`
	Password  string    `gorm:"not null"                 json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"     json:"-"`
}

type Todo struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index;not null"           json:"-"`
	Title       string    `gorm:"not null"                 json:"title"`
	Description string    `gorm:"not null"                 json:"description"`
	State       TodoState `gorm:"not null"                 json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"     json:"updated_at"`
}

// Timestamps are written once at insert and never touched again.
func (u *User) BeforeCreate(*gorm.DB) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (t *Todo) BeforeCreate(*gorm.DB) error {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	return nil
}
