package model

import "time"

// MinDurationMinutes and MaxDurationMinutes bound Number.DurationMinutes
// (both inclusive).
const (
    MinDurationMinutes = 1
    MaxDurationMinutes = 120
)

// Number is a scheduled show slot performed by one Presenter.
//
// Fields:
//  Code            – admin-chosen primary key.
//  Title           – title of the act.
//  DurationMinutes – length of the slot, 1..120.
//  PresenterCode   – presenter performing the number.
//  ShowDateTime    – date and time of the performance (UTC).
//  Presenter       – resolved relation, nil when not loaded or dangling.
//  Upcoming        – IsUpcoming at read time; set by the services, not stored.
type Number struct {
    Code            string     `json:"code"`
    Title           string     `json:"title"`
    DurationMinutes int        `json:"duration_minutes"`
    PresenterCode   string     `json:"presenter_code"`
    ShowDateTime    time.Time  `json:"show_date_time"`
    Presenter       *Presenter `json:"presenter,omitempty"`
    Upcoming        bool       `json:"is_upcoming"`
}

// IsUpcoming reports whether the show is scheduled strictly after now.
func (n Number) IsUpcoming(now time.Time) bool {
    return n.ShowDateTime.After(now)
}

// Resolved reports whether both the presenter and the presenter's role
// were loaded.  Listings drop numbers that are not resolved.
func (n Number) Resolved() bool {
    return n.Presenter != nil && n.Presenter.Role != nil
}
