package repository

import (
	"MapHub-Backend/internal/domain"
	"context"
	"time"
)

// Storage is the relational store. Missing rows are reported as
// domain.ErrNotFound, other failures as domain.ErrDependency.
type Storage interface {
	// WithinTx runs fn against a transactional view of the store. Every change
	// made through tx is committed when fn returns nil and discarded otherwise.
	WithinTx(ctx context.Context, fn func(tx Storage) error) error

	UserRepository
	MapRepository
	PlaceRepository
	TagRepository
	CountryRepository
	LikeRepository
	RefreshTokenRepository
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByName(ctx context.Context, name string) (*domain.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*domain.User, error)
	// UpdateUser reports a name or email taken by another account as conflict.
	UpdateUser(ctx context.Context, user *domain.User) error
	// DeleteUser also removes the user's refresh tokens.
	DeleteUser(ctx context.Context, id int64) error
	// LockUser holds the user's row until the surrounding transaction ends.
	LockUser(ctx context.Context, id int64) error
}

type MapRepository interface {
	CreateMap(ctx context.Context, m *domain.Map) error
	// GetMap loads the map with its tags and countries.
	GetMap(ctx context.Context, id int64) (*domain.Map, error)
	// GetMapWithDetails additionally loads places and likes.
	GetMapWithDetails(ctx context.Context, id int64) (*domain.Map, error)
	// UpdateMap persists name, description, uploaded flag, publication date and thumbnail.
	UpdateMap(ctx context.Context, m *domain.Map) error
	SetMapUploaded(ctx context.Context, id int64, uploaded bool) error
	DeleteMap(ctx context.Context, id int64) error
	CountMapsCreatedOn(ctx context.Context, ownerID int64, date string) (int64, error)
	DetachMapFromCreator(ctx context.Context, creatorID, mapID int64) error
	IncrementMapLikes(ctx context.Context, mapID int64) (domain.RefCount, error)
	// DecrementMapLikes never takes the counter below zero.
	DecrementMapLikes(ctx context.Context, mapID int64) (domain.RefCount, error)
	AdjustMapPlaces(ctx context.Context, mapID int64, delta int) error
	ListPublishedMaps(ctx context.Context, filter domain.MapFilter, page domain.Page) ([]domain.Map, error)
	ListUserMaps(ctx context.Context, userID int64, uploaded bool, page domain.Page) ([]domain.Map, error)
	ListUserMapIDs(ctx context.Context, userID int64) ([]int64, error)
}

type PlaceRepository interface {
	CreatePlace(ctx context.Context, p *domain.Place) error
	GetPlace(ctx context.Context, id int64) (*domain.Place, error)
	UpdatePlace(ctx context.Context, p *domain.Place) error
	DeletePlace(ctx context.Context, id int64) error
	ListPlaces(ctx context.Context, mapID int64) ([]domain.Place, error)
	DeletePlacesByMap(ctx context.Context, mapID int64) error
}

// TagRepository has no way to set Tag.Quantity directly: the counter only
// moves through AttachTag and DetachTag together with the link row.
type TagRepository interface {
	GetTagByName(ctx context.Context, name string) (*domain.Tag, error)
	// CreateTag inserts a tag with quantity 1 already linked to mapID.
	CreateTag(ctx context.Context, name string, mapID int64) (*domain.Tag, error)
	IsTagLinked(ctx context.Context, tagID, mapID int64) (bool, error)
	AttachTag(ctx context.Context, tagID, mapID int64) (domain.RefCount, error)
	// DetachTag fails with not_found and leaves the counter alone when the
	// pair was never linked.
	DetachTag(ctx context.Context, tagID, mapID int64) (domain.RefCount, error)
	DeleteTag(ctx context.Context, tagID int64) error
	ListMapTags(ctx context.Context, mapID int64) ([]domain.Tag, error)
	// PopularTags orders by quantity descending, ties by creation order.
	PopularTags(ctx context.Context, limit int) ([]domain.Tag, error)
}

// CountryRepository follows the same rule for MapCountry.ConnectionCount.
type CountryRepository interface {
	GetCountryByName(ctx context.Context, name string) (*domain.Country, error)
	CreateCountry(ctx context.Context, name string) (*domain.Country, error)
	ListCountryNames(ctx context.Context) ([]string, error)
	GetMapCountry(ctx context.Context, mapID, countryID int64) (*domain.MapCountry, error)
	// CreateMapCountry inserts the join with connection count 1.
	CreateMapCountry(ctx context.Context, mapID, countryID int64) error
	AttachMapCountry(ctx context.Context, mapID, countryID int64) (domain.RefCount, error)
	DetachMapCountry(ctx context.Context, mapID, countryID int64) (domain.RefCount, error)
	DeleteMapCountry(ctx context.Context, mapID, countryID int64) error
	DeleteMapCountries(ctx context.Context, mapID int64) error
}

type LikeRepository interface {
	HasLike(ctx context.Context, userID, mapID int64) (bool, error)
	CreateLike(ctx context.Context, userID, mapID int64) error
	DeleteLike(ctx context.Context, userID, mapID int64) error
	DeleteLikesByMap(ctx context.Context, mapID int64) error
	ListLikedMapIDs(ctx context.Context, userID int64) ([]int64, error)
	// ListLikedMaps returns the user's liked maps that are published.
	ListLikedMaps(ctx context.Context, userID int64, page domain.Page) ([]domain.Map, error)
}

// RefreshTokenRepository stores issued refresh tokens by their JWT ID.
type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	// RevokeRefreshToken marks the token revoked and records at as its last use.
	RevokeRefreshToken(ctx context.Context, token string, at time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID int64) error
}
