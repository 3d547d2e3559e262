package auth

import (
	"fmt"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/models"
)

// Identity is the authenticated caller. A nil *Identity is an anonymous caller.
type Identity struct {
	UserID      int64
	Email       string
	IsStaff     bool
	IsModerator bool
	IsAdmin     bool
}

// Label is the human-readable name used for guest labels and audit fields
func (i *Identity) Label() string {
	if i == nil {
		return ""
	}
	if i.Email != "" {
		return i.Email
	}
	return fmt.Sprintf("user-%d", i.UserID)
}

// HasStaffAccess reports whether the caller sees every dinner and manages the catalog.
// Moderators and admins are staff.
func (i *Identity) HasStaffAccess() bool {
	return i != nil && (i.IsStaff || i.IsModerator || i.IsAdmin)
}

// RequireAuthenticated fails with Unauthorized for anonymous callers
func RequireAuthenticated(caller *Identity) error {
	if caller == nil {
		return apperror.Unauthorized("authentication required")
	}
	return nil
}

// RequireStaff allows staff, moderators and admins
func RequireStaff(caller *Identity) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if !caller.HasStaffAccess() {
		return apperror.Forbidden("staff role required")
	}
	return nil
}

// RequireModerator allows callers holding the moderator role
func RequireModerator(caller *Identity) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if !caller.IsModerator {
		return apperror.Forbidden("moderator role required")
	}
	return nil
}

// RequireAdminOrModerator allows admins and moderators
func RequireAdminOrModerator(caller *Identity) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if !caller.IsAdmin && !caller.IsModerator {
		return apperror.Forbidden("admin or moderator role required")
	}
	return nil
}

// RequireCreator allows only the creator of the dinner
func RequireCreator(caller *Identity, dinner *models.Dinner) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if caller.UserID != dinner.CreatorID {
		return apperror.Forbidden("access denied: only the creator may do this")
	}
	return nil
}

// RequireCreatorOrStaff allows the creator of the dinner and staff
func RequireCreatorOrStaff(caller *Identity, dinner *models.Dinner) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if caller.UserID != dinner.CreatorID && !caller.HasStaffAccess() {
		return apperror.Forbidden("access denied")
	}
	return nil
}
