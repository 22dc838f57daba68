package memory

import (
	"MapHub-Backend/internal/domain"
	"context"
	"errors"
	"time"
)

var (
	errForeignKey   = errors.New("foreign key violation")
	errDuplicateKey = errors.New("duplicate key value")
)

// Locked entry points. Each call runs as its own serialized transaction.

func get[T any](s *MemStorage, fn func(tx *txStorage) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&txStorage{st: s.st})
}

func (s *MemStorage) CreateUser(ctx context.Context, user *domain.User) error {
	return s.run(func(tx *txStorage) error { return tx.CreateUser(ctx, user) })
}

func (s *MemStorage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return get(s, func(tx *txStorage) (*domain.User, error) { return tx.GetUserByID(ctx, id) })
}

func (s *MemStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return get(s, func(tx *txStorage) (*domain.User, error) { return tx.GetUserByEmail(ctx, email) })
}

func (s *MemStorage) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	return get(s, func(tx *txStorage) (*domain.User, error) { return tx.GetUserByName(ctx, name) })
}

func (s *MemStorage) GetUserByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return get(s, func(tx *txStorage) (*domain.User, error) { return tx.GetUserByVerificationToken(ctx, token) })
}

func (s *MemStorage) GetUserByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return get(s, func(tx *txStorage) (*domain.User, error) { return tx.GetUserByResetToken(ctx, token) })
}

func (s *MemStorage) UpdateUser(ctx context.Context, user *domain.User) error {
	return s.run(func(tx *txStorage) error { return tx.UpdateUser(ctx, user) })
}

func (s *MemStorage) DeleteUser(ctx context.Context, id int64) error {
	return s.run(func(tx *txStorage) error { return tx.DeleteUser(ctx, id) })
}

func (s *MemStorage) LockUser(ctx context.Context, id int64) error {
	return s.run(func(tx *txStorage) error { return tx.LockUser(ctx, id) })
}

func (s *MemStorage) CreateMap(ctx context.Context, m *domain.Map) error {
	return s.run(func(tx *txStorage) error { return tx.CreateMap(ctx, m) })
}

func (s *MemStorage) GetMap(ctx context.Context, id int64) (*domain.Map, error) {
	return get(s, func(tx *txStorage) (*domain.Map, error) { return tx.GetMap(ctx, id) })
}

func (s *MemStorage) GetMapWithDetails(ctx context.Context, id int64) (*domain.Map, error) {
	return get(s, func(tx *txStorage) (*domain.Map, error) { return tx.GetMapWithDetails(ctx, id) })
}

func (s *MemStorage) UpdateMap(ctx context.Context, m *domain.Map) error {
	return s.run(func(tx *txStorage) error { return tx.UpdateMap(ctx, m) })
}

func (s *MemStorage) SetMapUploaded(ctx context.Context, id int64, uploaded bool) error {
	return s.run(func(tx *txStorage) error { return tx.SetMapUploaded(ctx, id, uploaded) })
}

func (s *MemStorage) DeleteMap(ctx context.Context, id int64) error {
	return s.run(func(tx *txStorage) error { return tx.DeleteMap(ctx, id) })
}

func (s *MemStorage) CountMapsCreatedOn(ctx context.Context, ownerID int64, date string) (int64, error) {
	return get(s, func(tx *txStorage) (int64, error) { return tx.CountMapsCreatedOn(ctx, ownerID, date) })
}

func (s *MemStorage) DetachMapFromCreator(ctx context.Context, creatorID, mapID int64) error {
	return s.run(func(tx *txStorage) error { return tx.DetachMapFromCreator(ctx, creatorID, mapID) })
}

func (s *MemStorage) IncrementMapLikes(ctx context.Context, mapID int64) (domain.RefCount, error) {
	return get(s, func(tx *txStorage) (domain.RefCount, error) { return tx.IncrementMapLikes(ctx, mapID) })
}

func (s *MemStorage) DecrementMapLikes(ctx context.Context, mapID int64) (domain.RefCount, error) {
	return get(s, func(tx *txStorage) (domain.RefCount, error) { return tx.DecrementMapLikes(ctx, mapID) })
}

func (s *MemStorage) AdjustMapPlaces(ctx context.Context, mapID int64, delta int) error {
	return s.run(func(tx *txStorage) error { return tx.AdjustMapPlaces(ctx, mapID, delta) })
}

func (s *MemStorage) ListPublishedMaps(ctx context.Context, filter domain.MapFilter, page domain.Page) ([]domain.Map, error) {
	return get(s, func(tx *txStorage) ([]domain.Map, error) { return tx.ListPublishedMaps(ctx, filter, page) })
}

func (s *MemStorage) ListUserMaps(ctx context.Context, userID int64, uploaded bool, page domain.Page) ([]domain.Map, error) {
	return get(s, func(tx *txStorage) ([]domain.Map, error) { return tx.ListUserMaps(ctx, userID, uploaded, page) })
}

func (s *MemStorage) ListUserMapIDs(ctx context.Context, userID int64) ([]int64, error) {
	return get(s, func(tx *txStorage) ([]int64, error) { return tx.ListUserMapIDs(ctx, userID) })
}

func (s *MemStorage) CreatePlace(ctx context.Context, p *domain.Place) error {
	return s.run(func(tx *txStorage) error { return tx.CreatePlace(ctx, p) })
}

func (s *MemStorage) GetPlace(ctx context.Context, id int64) (*domain.Place, error) {
	return get(s, func(tx *txStorage) (*domain.Place, error) { return tx.GetPlace(ctx, id) })
}

func (s *MemStorage) UpdatePlace(ctx context.Context, p *domain.Place) error {
	return s.run(func(tx *txStorage) error { return tx.UpdatePlace(ctx, p) })
}

func (s *MemStorage) DeletePlace(ctx context.Context, id int64) error {
	return s.run(func(tx *txStorage) error { return tx.DeletePlace(ctx, id) })
}

func (s *MemStorage) ListPlaces(ctx context.Context, mapID int64) ([]domain.Place, error) {
	return get(s, func(tx *txStorage) ([]domain.Place, error) { return tx.ListPlaces(ctx, mapID) })
}

func (s *MemStorage) DeletePlacesByMap(ctx context.Context, mapID int64) error {
	return s.run(func(tx *txStorage) error { return tx.DeletePlacesByMap(ctx, mapID) })
}

func (s *MemStorage) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	return get(s, func(tx *txStorage) (*domain.Tag, error) { return tx.GetTagByName(ctx, name) })
}

func (s *MemStorage) CreateTag(ctx context.Context, name string, mapID int64) (*domain.Tag, error) {
	return get(s, func(tx *txStorage) (*domain.Tag, error) { return tx.CreateTag(ctx, name, mapID) })
}

func (s *MemStorage) IsTagLinked(ctx context.Context, tagID, mapID int64) (bool, error) {
	return get(s, func(tx *txStorage) (bool, error) { return tx.IsTagLinked(ctx, tagID, mapID) })
}

func (s *MemStorage) AttachTag(ctx context.Context, tagID, mapID int64) (domain.RefCount, error) {
	return get(s, func(tx *txStorage) (domain.RefCount, error) { return tx.AttachTag(ctx, tagID, mapID) })
}

func (s *MemStorage) DetachTag(ctx context.Context, tagID, mapID int64) (domain.RefCount, error) {
	return get(s, func(tx *txStorage) (domain.RefCount, error) { return tx.DetachTag(ctx, tagID, mapID) })
}

func (s *MemStorage) DeleteTag(ctx context.Context, tagID int64) error {
	return s.run(func(tx *txStorage) error { return tx.DeleteTag(ctx, tagID) })
}

func (s *MemStorage) ListMapTags(ctx context.Context, mapID int64) ([]domain.Tag, error) {
	return get(s, func(tx *txStorage) ([]domain.Tag, error) { return tx.ListMapTags(ctx, mapID) })
}

func (s *MemStorage) PopularTags(ctx context.Context, limit int) ([]domain.Tag, error) {
	return get(s, func(tx *txStorage) ([]domain.Tag, error) { return tx.PopularTags(ctx, limit) })
}

func (s *MemStorage) GetCountryByName(ctx context.Context, name string) (*domain.Country, error) {
	return get(s, func(tx *txStorage) (*domain.Country, error) { return tx.GetCountryByName(ctx, name) })
}

func (s *MemStorage) CreateCountry(ctx context.Context, name string) (*domain.Country, error) {
	return get(s, func(tx *txStorage) (*domain.Country, error) { return tx.CreateCountry(ctx, name) })
}

func (s *MemStorage) ListCountryNames(ctx context.Context) ([]string, error) {
	return get(s, func(tx *txStorage) ([]string, error) { return tx.ListCountryNames(ctx) })
}

func (s *MemStorage) GetMapCountry(ctx context.Context, mapID, countryID int64) (*domain.MapCountry, error) {
	return get(s, func(tx *txStorage) (*domain.MapCountry, error) { return tx.GetMapCountry(ctx, mapID, countryID) })
}

func (s *MemStorage) CreateMapCountry(ctx context.Context, mapID, countryID int64) error {
	return s.run(func(tx *txStorage) error { return tx.CreateMapCountry(ctx, mapID, countryID) })
}

func (s *MemStorage) AttachMapCountry(ctx context.Context, mapID, countryID int64) (domain.RefCount, error) {
	return get(s, func(tx *txStorage) (domain.RefCount, error) { return tx.AttachMapCountry(ctx, mapID, countryID) })
}

func (s *MemStorage) DetachMapCountry(ctx context.Context, mapID, countryID int64) (domain.RefCount, error) {
	return get(s, func(tx *txStorage) (domain.RefCount, error) { return tx.DetachMapCountry(ctx, mapID, countryID) })
}

func (s *MemStorage) DeleteMapCountry(ctx context.Context, mapID, countryID int64) error {
	return s.run(func(tx *txStorage) error { return tx.DeleteMapCountry(ctx, mapID, countryID) })
}

func (s *MemStorage) DeleteMapCountries(ctx context.Context, mapID int64) error {
	return s.run(func(tx *txStorage) error { return tx.DeleteMapCountries(ctx, mapID) })
}

func (s *MemStorage) HasLike(ctx context.Context, userID, mapID int64) (bool, error) {
	return get(s, func(tx *txStorage) (bool, error) { return tx.HasLike(ctx, userID, mapID) })
}

func (s *MemStorage) CreateLike(ctx context.Context, userID, mapID int64) error {
	return s.run(func(tx *txStorage) error { return tx.CreateLike(ctx, userID, mapID) })
}

func (s *MemStorage) DeleteLike(ctx context.Context, userID, mapID int64) error {
	return s.run(func(tx *txStorage) error { return tx.DeleteLike(ctx, userID, mapID) })
}

func (s *MemStorage) DeleteLikesByMap(ctx context.Context, mapID int64) error {
	return s.run(func(tx *txStorage) error { return tx.DeleteLikesByMap(ctx, mapID) })
}

func (s *MemStorage) ListLikedMapIDs(ctx context.Context, userID int64) ([]int64, error) {
	return get(s, func(tx *txStorage) ([]int64, error) { return tx.ListLikedMapIDs(ctx, userID) })
}

func (s *MemStorage) ListLikedMaps(ctx context.Context, userID int64, page domain.Page) ([]domain.Map, error) {
	return get(s, func(tx *txStorage) ([]domain.Map, error) { return tx.ListLikedMaps(ctx, userID, page) })
}

func (s *MemStorage) CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	return s.run(func(tx *txStorage) error { return tx.CreateRefreshToken(ctx, token) })
}

func (s *MemStorage) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	return get(s, func(tx *txStorage) (*domain.RefreshToken, error) { return tx.GetRefreshToken(ctx, token) })
}

func (s *MemStorage) RevokeRefreshToken(ctx context.Context, token string, at time.Time) error {
	return s.run(func(tx *txStorage) error { return tx.RevokeRefreshToken(ctx, token, at) })
}

func (s *MemStorage) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	return s.run(func(tx *txStorage) error { return tx.RevokeUserRefreshTokens(ctx, userID) })
}
