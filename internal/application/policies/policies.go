package policies

import (
	"context"
	"errors"

	"papertrade-backend/internal/domain"

	"gorm.io/gorm"
)

// RequireAdmin returns the named user when it exists and is an admin.
// Unknown users and non-admins both get ErrNotAuthorized so the endpoint
// does not reveal which usernames exist.
func RequireAdmin(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	if username == "" {
		return nil, domain.ErrNotAuthorized
	}
	var user domain.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotAuthorized
		}
		return nil, err
	}
	if !user.IsAdmin {
		return nil, domain.ErrNotAuthorized
	}
	return &user, nil
}

// ValidateFeature rejects featuring a competition unless actor is an admin.
func ValidateFeature(actor *domain.User, featured bool) error {
	if featured && !actor.IsAdmin {
		return domain.ErrFeatureRequiresAdmin
	}
	return nil
}

// ValidateJoin rejects joins to a competition that is not open.
func ValidateJoin(comp *domain.Competition) error {
	if !comp.IsOpen {
		return domain.ErrCompetitionRestricted
	}
	return nil
}
