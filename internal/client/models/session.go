package models

import "time"

// User is the authenticated operator.
type User struct {
	Username string `json:"username"`
}

// Stocktake identifies a counting session on the remote store.
type Stocktake struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Handle string `json:"url,omitempty"`
}

// StocktakeInfo is a listing entry returned by the remote store.
type StocktakeInfo struct {
	ID           string
	Name         string
	CreatedBy    string
	CreatedDate  time.Time
	LastModified time.Time
}

// Session is the explicit selection context passed to services.
// Zero fields mean "not selected".
type Session struct {
	User      *User
	Stocktake *Stocktake
	Location  string
}

// Username returns the logged-in username or "".
func (s Session) Username() string {
	if s.User == nil {
		return ""
	}
	return s.User.Username
}

// StocktakeID returns the active stocktake id or "".
func (s Session) StocktakeID() string {
	if s.Stocktake == nil {
		return ""
	}
	return s.Stocktake.ID
}
