package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RolePlayer UserRole = "player"
)

// DefaultRating — стартовый MMR нового аккаунта.
const DefaultRating = 1500

type User struct {
	ID           int       `json:"id"`
	BattleTag    string    `json:"battle_tag"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Rating       int       `json:"rating"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	CreatedAt    time.Time `json:"created_at"`
}

type Credentials struct {
	BattleTag string `json:"battle_tag"`
	Password  string `json:"password"`
}
