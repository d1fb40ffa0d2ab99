package domain

import "errors"

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindInvalid
	KindInsufficientFunds
	KindInsufficientShares
	KindCompetitionNotStarted
	KindCompetitionEnded
	KindPriceUnavailable
)

// Error is a user-facing error with a classification.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf returns the Kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrUserNotFound             = newError(KindNotFound, "User not found")
	ErrCompetitionNotFound      = newError(KindNotFound, "Competition not found")
	ErrTeamNotFound             = newError(KindNotFound, "Team not found")
	ErrNoSuchHolding            = newError(KindNotFound, "No holding for this symbol")
	ErrNotCompetitionMember     = newError(KindNotFound, "User is not a member of this competition")
	ErrTeamNotInCompetition     = newError(KindNotFound, "Team is not part of this competition")
	ErrTeamMembershipNotFound   = newError(KindNotFound, "User is not a member of this team")
	ErrNotTeamMember            = newError(KindUnauthorized, "User is not a member of this team")
	ErrNotAuthorized            = newError(KindUnauthorized, "Not authorized")
	ErrFeatureRequiresAdmin     = newError(KindUnauthorized, "Only admins can feature competitions")
	ErrCompetitionRestricted    = newError(KindUnauthorized, "Competition is restricted, use code to join")
	ErrInvalidCredentials       = newError(KindUnauthorized, "Invalid credentials")
	ErrInvalidQuantity          = newError(KindInvalid, "Quantity must be a positive integer")
	ErrInvalidSymbol            = newError(KindInvalid, "Invalid symbol")
	ErrInvalidSide              = newError(KindInvalid, "Side must be buy or sell")
	ErrInvalidAccount           = newError(KindInvalid, "Invalid account reference")
	ErrInvalidDates             = newError(KindInvalid, "Start date must be before end date")
	ErrInvalidDateFormat        = newError(KindInvalid, "Invalid date format")
	ErrUsernameTaken            = newError(KindInvalid, "User already exists")
	ErrUsernameReserved         = newError(KindInvalid, "Username is reserved")
	ErrEmailTaken               = newError(KindInvalid, "Email already in use")
	ErrMissingCredentials       = newError(KindInvalid, "Username and password are required")
	ErrInvalidEmail             = newError(KindInvalid, "Invalid email format")
	ErrInvalidUsername          = newError(KindInvalid, "Username must be 3-80 letters, digits, dots, underscores or hyphens")
	ErrTeamNameRequired         = newError(KindInvalid, "Team name is required")
	ErrInsufficientFunds        = newError(KindInsufficientFunds, "Insufficient funds")
	ErrInsufficientShares       = newError(KindInsufficientShares, "Not enough shares to sell")
	ErrCompetitionNotStarted    = newError(KindCompetitionNotStarted, "Competition has not started yet. No trading allowed.")
	ErrCompetitionEnded         = newError(KindCompetitionEnded, "Competition has ended. No trading allowed.")
	ErrPriceUnavailable         = newError(KindPriceUnavailable, "Price unavailable")
	ErrCompetitionCodeExhausted = newError(KindInternal, "Could not allocate a unique competition code")
)
