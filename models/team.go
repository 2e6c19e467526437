package models

import "time"

type Team struct {
	ID         int       `json:"id" db:"id"`
	EventID    int       `json:"event_id" db:"event_id"`
	TeamNumber int       `json:"team_number" db:"team_number"`
	TeamName   string    `json:"team_name" db:"team_name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}
