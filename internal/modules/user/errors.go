package user

import "conveycrm/internal/pkg/apperr"

var (
	ErrUserNotFound         = apperr.NotFound("User not found")
	ErrEmailTaken           = apperr.Validation("User with this email already exists")
	ErrLastAdmin            = apperr.Validation("Cannot delete the last admin user")
	ErrLastAdminDemoted     = apperr.Validation("Cannot change the role of the last admin user")
	ErrLastAdminDeactivated = apperr.Validation("Cannot deactivate the last admin user")
	ErrPasswordRequired     = apperr.Validation("New password is required")
	ErrPasswordTooShort     = apperr.Validation("Password must be at least 8 characters")
	ErrUnknownRole          = apperr.Validation("role must be Admin, Manager or Agent")
	ErrUnknownStatus        = apperr.Validation("status must be Active or Inactive")
)
