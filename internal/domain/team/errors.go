package team

import "errors"

var (
	ErrNameRequired      = errors.New("team name is required")
	ErrEmailRequired     = errors.New("email is required")
	ErrInvalidRole       = errors.New("role must be admin or member")
	ErrTeamNotFound      = errors.New("team not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrAlreadyMember     = errors.New("user is already a team member")
	ErrForbidden         = errors.New("insufficient team permissions")
	ErrCannotRemoveOwner = errors.New("team owner cannot be removed")
)
