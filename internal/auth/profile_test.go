package auth

import (
	"MapHub-Backend/internal/domain"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_ChangeUserName(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	anna := f.verified(t, "anna", "anna@example.com", "secret1")
	f.verified(t, "bob", "bob@example.com", "secret1")

	tests := []struct {
		name    string
		newName string
		wantErr error
	}{
		{name: "empty", newName: "  ", wantErr: domain.ErrValidation},
		{name: "offensive", newName: "idiot", wantErr: domain.ErrModerationRejected},
		{name: "taken", newName: "bob", wantErr: domain.ErrConflict},
		{name: "unchanged", newName: "anna"},
		{name: "renamed", newName: " annie "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.accounts.ChangeUserName(ctx, anna.ID, tt.newName)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	stored, err := f.store.GetUserByID(ctx, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, "annie", stored.Name)

	err = f.accounts.ChangeUserName(ctx, 999, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountService_Profile(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	u := f.verified(t, "anna", "anna@example.com", "secret1")

	profile, err := f.accounts.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, &domain.Profile{ID: u.ID, Name: "anna", CreatedDate: "10.03.2026"}, profile)

	f.blobs.On("Upload", mock.Anything, mock.Anything).Return("pic.png", nil).Once()
	require.NoError(t, f.accounts.SetProfilePicture(ctx, u.ID, &domain.Upload{Filename: "a.png"}))

	f.blobs.On("SignedURL", mock.Anything, "pic.png", time.Hour).Return("/media/pic.png?sig=x", nil).Once()
	profile, err = f.accounts.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "/media/pic.png?sig=x", profile.ProfilePicture)

	// A signing failure drops the picture rather than the profile
	f.blobs.On("SignedURL", mock.Anything, "pic.png", time.Hour).Return("", errors.New("boom")).Once()
	profile, err = f.accounts.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.ProfilePicture)

	_, err = f.accounts.Profile(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
