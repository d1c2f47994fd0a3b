package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурсы
	ErrMatchNotFound = errors.New("match not found")
	ErrUserNotFound  = errors.New("user not found")

	// Ошибки состава и жизненного цикла матча.
	// Это ошибки логики вызывающей стороны, повторять их бессмысленно.
	ErrAlreadyJoined     = errors.New("participant already joined this match")
	ErrNotAMember        = errors.New("participant is not a member of this match")
	ErrMatchFull         = errors.New("match is full")
	ErrInvalidTransition = errors.New("operation is not legal in the current match status")
	ErrBalancingFailure  = errors.New("roster cannot be split into valid teams")

	// Транзиентные ошибки: вызывающая сторона может повторить запрос.
	ErrPersistenceFailure     = errors.New("failed to persist match result")
	ErrConcurrentModification = errors.New("match is locked by another operation")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrMatchTitleRequired   = errors.New("match title is required")
	ErrMatchCapacityInvalid = errors.New("match max players must be between 2 and 10")
	ErrOutcomeInvalid       = errors.New("match outcome is invalid")
	ErrReplayNotAllowed     = errors.New("replay can only be attached to a completed match")

	// Ошибки аутентификации
	ErrAuthInvalidCredentials = errors.New("invalid battle tag or password")
	ErrBattleTagTaken         = errors.New("battle tag is already in use")
	ErrBattleTagInvalid       = errors.New("battle tag format is invalid")
	ErrPasswordTooShort       = errors.New("password is too short")
)
