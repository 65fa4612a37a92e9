package storage

import "time"

// Item represents one practice item (a song or exercise).
type Item struct {
	ID          int64
	Title       string
	Notes       string // markdown practice notes
	Duration    string // free text, e.g. "5 min"
	Description string
	Order       int
	Tuning      string
	Songbook    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Routine represents a named practice routine.
type Routine struct {
	ID        int64
	Name      string
	Order     int
	CreatedAt time.Time
}

// RoutineEntry is one item inside a routine, joined with the item title so
// routine views do not need a second query.
type RoutineEntry struct {
	ID        int64
	RoutineID int64
	ItemID    int64
	ItemTitle string
	Order     int
	Completed bool
}
