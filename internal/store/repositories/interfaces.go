package repositories

import (
	"context"

	"oldphonedeals/internal/domain/preference"
)

// PreferenceRepository defines the contract for saved view preferences
type PreferenceRepository interface {
	SavePreference(ctx context.Context, p *preference.Preference) error
	FindPreference(ctx context.Context, userID, view string) (*preference.Preference, error)
}
