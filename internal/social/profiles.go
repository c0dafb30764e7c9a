package social

import (
	"context"
	"errors"

	"socialgraph/backend/internal/models"
	"socialgraph/backend/internal/store"
)

// Profiles provisions and edits profiles.
type Profiles struct {
	store store.Store
}

func NewProfiles(s store.Store) *Profiles {
	return &Profiles{store: s}
}

// Provision creates the single profile of a newly created user. Identity
// management must call it, in the same transaction that creates the user,
// before any graph operation references that user.
func (p *Profiles) Provision(ctx context.Context, userID uint) (*models.Profile, error) {
	profile := &models.Profile{UserID: userID}
	if err := p.store.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrProfileExists
		}
		return nil, storeErr("provision profile", err)
	}
	return profile, nil
}

func (p *Profiles) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := p.store.GetProfile(ctx, userID)
	return profile, storeErr("get profile", err)
}

// Update replaces the bio and avatar of the viewer's own profile.
func (p *Profiles) Update(ctx context.Context, viewer Viewer, bio string, avatarURL *string) (*models.Profile, error) {
	who, ok := viewer.(Authenticated)
	if !ok {
		return nil, ErrPermissionDenied
	}

	profile, err := p.store.GetProfile(ctx, who.UserID)
	if err != nil {
		return nil, storeErr("update profile", err)
	}
	profile.Bio = bio
	profile.AvatarURL = avatarURL
	if err := p.store.UpdateProfile(ctx, profile); err != nil {
		return nil, storeErr("update profile", err)
	}
	return profile, nil
}
