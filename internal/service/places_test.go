package service

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

func TestPlaceService_AddAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice")
	mapID := f.savedMap(t, owner, "Krakow")

	first, err := f.places.AddPlace(ctx, AddPlaceInput{MapID: mapID, Type: domain.PlaceTypeMarker, X: 50.06, Y: 19.94, Country: "Poland"})
	require.NoError(t, err)
	second, err := f.places.AddPlace(ctx, AddPlaceInput{MapID: mapID, Type: domain.PlaceTypeMarker, X: 50.1, Y: 19.9, Country: "Poland"})
	require.NoError(t, err)

	m, err := f.store.GetMap(ctx, mapID)
	require.NoError(t, err)
	assert.Equal(t, 2, m.PlacesQuantity)
	assert.Equal(t, []string{"Poland"}, m.CountryNames())

	got, err := f.places.MapIDOf(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, mapID, got)

	report, err := f.places.Remove(ctx, first)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	m, err = f.store.GetMap(ctx, mapID)
	require.NoError(t, err)
	assert.Equal(t, 1, m.PlacesQuantity)
	assert.Equal(t, []string{"Poland"}, m.CountryNames())

	_, err = f.places.Remove(ctx, second)
	require.NoError(t, err)
	m, err = f.store.GetMap(ctx, mapID)
	require.NoError(t, err)
	assert.Equal(t, 0, m.PlacesQuantity)
	assert.Empty(t, m.CountryNames())

	_, err = f.places.Remove(ctx, second)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceService_AddValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.moderator.scores["idiot"] = 0.5
	owner := f.user(t, "alice")
	mapID := f.savedMap(t, owner, "Krakow")

	tests := []struct {
		name    string
		in      AddPlaceInput
		wantErr error
	}{
		{name: "unknown type", in: AddPlaceInput{MapID: mapID, Type: "polygon"}, wantErr: domain.ErrValidation},
		{name: "circle without radius", in: AddPlaceInput{MapID: mapID, Type: domain.PlaceTypeCircle}, wantErr: domain.ErrValidation},
		{name: "toxic name", in: AddPlaceInput{MapID: mapID, Type: domain.PlaceTypeMarker, Name: "idiot"}, wantErr: domain.ErrModerationRejected},
		{name: "missing map", in: AddPlaceInput{MapID: 404, Type: domain.PlaceTypeMarker}, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.places.AddPlace(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	m, err := f.store.GetMap(ctx, mapID)
	require.NoError(t, err)
	assert.Equal(t, 0, m.PlacesQuantity)
}

func TestPlaceService_UpdateInfo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.moderator.scores["idiot"] = 0.5
	owner := f.user(t, "alice")
	mapID := f.savedMap(t, owner, "Krakow")
	placeID, err := f.places.AddPlace(ctx, AddPlaceInput{MapID: mapID, Type: domain.PlaceTypeMarker, Color: "#ff0000"})
	require.NoError(t, err)

	f.blobs.On("Upload", mock.Anything, byFilename("one.png")).Return("p-1.png", nil).Once()
	f.blobs.On("Upload", mock.Anything, byFilename("two.png")).Return("p-2.png", nil).Once()
	f.blobs.On("Delete", mock.Anything, "p-1.png").Return(nil).Once()
	f.blobs.On("Delete", mock.Anything, "p-2.png").Return(nil).Once()
	f.blobs.On("SignedURL", mock.Anything, "p-2.png", time.Hour).Return("https://media/p-2.png", nil).Once()

	require.NoError(t, f.places.UpdateInfo(ctx, UpdatePlaceInput{PlaceID: placeID, Name: "Castle", Description: "Wawel", Photo: upload("one.png")}))
	require.NoError(t, f.places.UpdateInfo(ctx, UpdatePlaceInput{PlaceID: placeID, Name: "Castle", Description: "Wawel hill", Photo: upload("two.png")}))

	markers, err := f.places.Markers(ctx, mapID)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, "Castle", markers[0].Name)
	assert.Equal(t, "Wawel hill", markers[0].Description)
	assert.Equal(t, "#ff0000", markers[0].Color)
	assert.Equal(t, "https://media/p-2.png", markers[0].PhotoURL)

	// Test removing the photo releases it
	require.NoError(t, f.places.UpdateInfo(ctx, UpdatePlaceInput{PlaceID: placeID, Name: "Castle", Description: "Wawel", RemovePhoto: true}))
	p, err := f.store.GetPlace(ctx, placeID)
	require.NoError(t, err)
	assert.Nil(t, p.Photo)

	// Test rejected input
	err = f.places.UpdateInfo(ctx, UpdatePlaceInput{PlaceID: placeID, Name: "Castle"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	err = f.places.UpdateInfo(ctx, UpdatePlaceInput{PlaceID: placeID, Name: "idiot", Description: "x"})
	assert.ErrorIs(t, err, domain.ErrModerationRejected)
	err = f.places.UpdateInfo(ctx, UpdatePlaceInput{PlaceID: 404, Name: "a", Description: "b"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceService_RemoveReportsPhotoFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice")
	mapID := f.savedMap(t, owner, "Krakow")
	placeID, err := f.places.AddPlace(ctx, AddPlaceInput{MapID: mapID, Type: domain.PlaceTypeMarker})
	require.NoError(t, err)

	f.blobs.On("Upload", mock.Anything, mock.Anything).Return("p.png", nil).Once()
	require.NoError(t, f.places.UpdateInfo(ctx, UpdatePlaceInput{PlaceID: placeID, Name: "a", Description: "b", Photo: upload("p.png")}))

	f.blobs.On("Delete", mock.Anything, "p.png").Return(errors.New("gone")).Once()
	f.releases.On("Submit", mock.Anything).Return(nil).Once()

	report, err := f.places.Remove(ctx, placeID)
	require.NoError(t, err)
	assert.False(t, report.Clean())

	_, err = f.store.GetPlace(ctx, placeID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceService_Circles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "alice")
	mapID := f.savedMap(t, owner, "Krakow")

	_, err := f.places.AddPlace(ctx, AddPlaceInput{MapID: mapID, Type: domain.PlaceTypeMarker})
	require.NoError(t, err)
	id, err := f.places.AddPlace(ctx, AddPlaceInput{MapID: mapID, Type: domain.PlaceTypeCircle, X: 1, Y: 2, Radius: 300, Name: "Old town", Color: "blue"})
	require.NoError(t, err)

	circles, err := f.places.Circles(ctx, mapID)
	require.NoError(t, err)
	require.Len(t, circles, 1)
	assert.Equal(t, domain.Circle{ID: id, X: 1, Y: 2, Radius: 300, Name: "Old town", Color: "blue"}, circles[0])

	_, err = f.places.Circles(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
