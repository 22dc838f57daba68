package postgres

import (
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/repository"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStorage реализует интерфейс Storage для PostgreSQL
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New создает новый экземпляр PostgreSQL storage
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

var _ repository.Storage = (*PostgresStorage)(nil)

// WithinTx выполняет fn в транзакции. Вложенные вызовы используют savepoint.
func (s *PostgresStorage) WithinTx(ctx context.Context, fn func(tx repository.Storage) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresStorage{db: tx, log: s.log})
	})
}

// fail логирует ошибку и оборачивает её в ошибку зависимости
func (s *PostgresStorage) fail(msg string, err error, fields ...zap.Field) error {
	s.log.Error(msg, append(fields, zap.Error(err))...)
	return domain.Dependency(msg, err)
}

// --- User Methods ---

func (s *PostgresStorage) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Conflict("account with this email or name already exists")
		}
		return s.fail("failed to create user", err, zap.String("email", user.Email))
	}

	s.log.Info("created new user", zap.Int64("user_id", user.ID))
	return nil
}

func (s *PostgresStorage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *PostgresStorage) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	return s.findUser(ctx, "name = ?", name)
}

func (s *PostgresStorage) GetUserByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return s.findUser(ctx, "verification_token = ?", token)
}

func (s *PostgresStorage) GetUserByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return s.findUser(ctx, "reset_password_token = ?", token)
}

func (s *PostgresStorage) findUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User

	err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("user not found")
	}
	if err != nil {
		return nil, s.fail("failed to get user", err, zap.String("query", query))
	}

	return &user, nil
}

func (s *PostgresStorage) UpdateUser(ctx context.Context, user *domain.User) error {
	result := s.db.WithContext(ctx).Model(&domain.User{ID: user.ID}).Select(
		"name", "email", "password_hash", "profile_picture", "is_verified",
		"verification_token", "verification_expires_at", "last_verification_sent_at",
		"reset_password_token", "reset_password_expires_at",
	).Updates(user)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return domain.Conflict("account with this email or name already exists")
	}
	if result.Error != nil {
		return s.fail("failed to update user", result.Error, zap.Int64("user_id", user.ID))
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("user not found")
	}
	return nil
}

func (s *PostgresStorage) DeleteUser(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.RefreshToken{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.NotFound("user not found")
		}
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err != nil {
		return s.fail("failed to delete user", err, zap.Int64("user_id", id))
	}

	s.log.Info("deleted user", zap.Int64("user_id", id))
	return nil
}

// LockUser берет блокировку строки пользователя до конца транзакции
func (s *PostgresStorage) LockUser(ctx context.Context, id int64) error {
	var user domain.User

	err := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound("user not found")
	}
	if err != nil {
		return s.fail("failed to lock user", err, zap.Int64("user_id", id))
	}
	return nil
}

// --- Map Methods ---

func (s *PostgresStorage) CreateMap(ctx context.Context, m *domain.Map) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return s.fail("failed to create map", err, zap.Int64("creator_id", m.CreatorID))
	}
	return nil
}

func (s *PostgresStorage) GetMap(ctx context.Context, id int64) (*domain.Map, error) {
	return s.loadMap(ctx, id, false)
}

func (s *PostgresStorage) GetMapWithDetails(ctx context.Context, id int64) (*domain.Map, error) {
	return s.loadMap(ctx, id, true)
}

func (s *PostgresStorage) loadMap(ctx context.Context, id int64, details bool) (*domain.Map, error) {
	var m domain.Map

	q := s.db.WithContext(ctx).
		Preload("Tags", orderBy("tags.id")).
		Preload("Countries", orderBy("map_countries.country_id")).
		Preload("Countries.Country")
	if details {
		q = q.Preload("Places", orderBy("places.id")).Preload("Likers", orderBy("user_map_likes.user_id"))
	}

	err := q.First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("map not found")
	}
	if err != nil {
		return nil, s.fail("failed to get map", err, zap.Int64("map_id", id))
	}
	return &m, nil
}

func (s *PostgresStorage) UpdateMap(ctx context.Context, m *domain.Map) error {
	result := s.db.WithContext(ctx).Model(&domain.Map{ID: m.ID}).
		Select("name", "description", "uploaded", "publication_date", "thumbnail", "thumbnail_digest", "updated_at").
		Updates(m)
	if result.Error != nil {
		return s.fail("failed to update map", result.Error, zap.Int64("map_id", m.ID))
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("map not found")
	}
	return nil
}

func (s *PostgresStorage) SetMapUploaded(ctx context.Context, id int64, uploaded bool) error {
	result := s.db.WithContext(ctx).Model(&domain.Map{}).Where("id = ?", id).Update("uploaded", uploaded)
	if result.Error != nil {
		return s.fail("failed to update map", result.Error, zap.Int64("map_id", id))
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("map not found")
	}
	return nil
}

func (s *PostgresStorage) DeleteMap(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&domain.Map{}, id)
	if result.Error != nil {
		return s.fail("failed to delete map", result.Error, zap.Int64("map_id", id))
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("map not found")
	}
	return nil
}

func (s *PostgresStorage) CountMapsCreatedOn(ctx context.Context, ownerID int64, date string) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&domain.Map{}).
		Where("creator_id = ? AND creation_date = ?", ownerID, date).
		Count(&count).Error
	if err != nil {
		return 0, s.fail("failed to count maps", err, zap.Int64("creator_id", ownerID))
	}
	return count, nil
}

// DetachMapFromCreator ничего не делает: коллекция карт пользователя
// выводится из внешнего ключа creator_id и исчезает вместе со строкой карты.
func (s *PostgresStorage) DetachMapFromCreator(_ context.Context, _, _ int64) error {
	return nil
}

func (s *PostgresStorage) IncrementMapLikes(ctx context.Context, mapID int64) (domain.RefCount, error) {
	return s.shift(ctx, "maps", "likes", "id = ?", 1, mapID)
}

func (s *PostgresStorage) DecrementMapLikes(ctx context.Context, mapID int64) (domain.RefCount, error) {
	return s.shift(ctx, "maps", "likes", "id = ?", -1, mapID)
}

func (s *PostgresStorage) AdjustMapPlaces(ctx context.Context, mapID int64, delta int) error {
	_, err := s.shift(ctx, "maps", "places_quantity", "id = ?", delta, mapID)
	return err
}

// shift атомарно сдвигает счетчик, не опуская его ниже нуля
func (s *PostgresStorage) shift(ctx context.Context, table, column, where string, delta int, args ...any) (domain.RefCount, error) {
	var rows []struct{ Value int }

	sql := "UPDATE " + table + " SET " + column + " = GREATEST(" + column + " + ?, 0) WHERE " + where +
		" RETURNING " + column + " AS value"
	err := s.db.WithContext(ctx).Raw(sql, append([]any{delta}, args...)...).Scan(&rows).Error
	if err != nil {
		return 0, s.fail("failed to update counter", err, zap.String("table", table), zap.String("column", column))
	}
	if len(rows) == 0 {
		return 0, domain.NotFound(table + " row not found")
	}
	return domain.RefCount(rows[0].Value), nil
}

func (s *PostgresStorage) ListPublishedMaps(ctx context.Context, filter domain.MapFilter, page domain.Page) ([]domain.Map, error) {
	q := s.db.WithContext(ctx).Model(&domain.Map{}).Where("maps.uploaded = ?", true)

	for _, term := range filter.Terms {
		like := "%" + term + "%"
		q = q.Where(`(maps.name LIKE ? OR EXISTS (
			SELECT 1 FROM map_tags mt JOIN tags t ON t.id = mt.tag_id
			WHERE mt.map_id = maps.id AND t.name LIKE ?))`, like, like)
	}
	if filter.Country != "" {
		q = q.Where(`EXISTS (
			SELECT 1 FROM map_countries mc JOIN countries c ON c.id = mc.country_id
			WHERE mc.map_id = maps.id AND c.name = ?)`, filter.Country)
	}
	if filter.Places != domain.PlacesAny {
		lo, hi := filter.Places.Bounds()
		q = q.Where("maps.places_quantity >= ?", lo)
		if hi >= 0 {
			q = q.Where("maps.places_quantity <= ?", hi)
		}
	}

	return s.listMaps(q, page)
}

func (s *PostgresStorage) ListUserMaps(ctx context.Context, userID int64, uploaded bool, page domain.Page) ([]domain.Map, error) {
	q := s.db.WithContext(ctx).Model(&domain.Map{}).Where("maps.creator_id = ? AND maps.uploaded = ?", userID, uploaded)
	return s.listMaps(q, page)
}

func (s *PostgresStorage) ListUserMapIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64

	err := s.db.WithContext(ctx).Model(&domain.Map{}).Where("creator_id = ?", userID).Order("id").Pluck("id", &ids).Error
	if err != nil {
		return nil, s.fail("failed to list user maps", err, zap.Int64("user_id", userID))
	}
	return ids, nil
}

func (s *PostgresStorage) listMaps(q *gorm.DB, page domain.Page) ([]domain.Map, error) {
	var maps []domain.Map

	err := q.Preload("Creator").Preload("Tags", orderBy("tags.id")).
		Order("maps.id").Offset(page.Offset()).Limit(page.Size).
		Find(&maps).Error
	if err != nil {
		return nil, s.fail("failed to list maps", err)
	}
	return maps, nil
}

func orderBy(column string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(column)
	}
}

// --- Place Methods ---

func (s *PostgresStorage) CreatePlace(ctx context.Context, p *domain.Place) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return s.fail("failed to create place", err, zap.Int64("map_id", p.MapID))
	}
	return nil
}

func (s *PostgresStorage) GetPlace(ctx context.Context, id int64) (*domain.Place, error) {
	var p domain.Place

	err := s.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("place not found")
	}
	if err != nil {
		return nil, s.fail("failed to get place", err, zap.Int64("place_id", id))
	}
	return &p, nil
}

func (s *PostgresStorage) UpdatePlace(ctx context.Context, p *domain.Place) error {
	result := s.db.WithContext(ctx).Model(&domain.Place{ID: p.ID}).
		Select("type", "name", "description", "x", "y", "radius", "color", "country", "photo").
		Updates(p)
	if result.Error != nil {
		return s.fail("failed to update place", result.Error, zap.Int64("place_id", p.ID))
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("place not found")
	}
	return nil
}

func (s *PostgresStorage) DeletePlace(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&domain.Place{}, id)
	if result.Error != nil {
		return s.fail("failed to delete place", result.Error, zap.Int64("place_id", id))
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("place not found")
	}
	return nil
}

func (s *PostgresStorage) ListPlaces(ctx context.Context, mapID int64) ([]domain.Place, error) {
	var places []domain.Place

	if err := s.db.WithContext(ctx).Where("map_id = ?", mapID).Order("id").Find(&places).Error; err != nil {
		return nil, s.fail("failed to list places", err, zap.Int64("map_id", mapID))
	}
	return places, nil
}

func (s *PostgresStorage) DeletePlacesByMap(ctx context.Context, mapID int64) error {
	if err := s.db.WithContext(ctx).Where("map_id = ?", mapID).Delete(&domain.Place{}).Error; err != nil {
		return s.fail("failed to delete places", err, zap.Int64("map_id", mapID))
	}
	return nil
}

// --- Tag Methods ---

func (s *PostgresStorage) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	var tag domain.Tag

	err := s.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("tag not found")
	}
	if err != nil {
		return nil, s.fail("failed to get tag", err, zap.String("tag", name))
	}
	return &tag, nil
}

func (s *PostgresStorage) CreateTag(ctx context.Context, name string, mapID int64) (*domain.Tag, error) {
	tag := domain.Tag{Name: name}
	tag.Quantity = tag.Quantity.Attach()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&tag).Error; err != nil {
			return err
		}
		return tx.Exec("INSERT INTO map_tags (map_id, tag_id) VALUES (?, ?)", mapID, tag.ID).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, domain.Conflict("tag already exists")
	}
	if err != nil {
		return nil, s.fail("failed to create tag", err, zap.String("tag", name), zap.Int64("map_id", mapID))
	}
	return &tag, nil
}

func (s *PostgresStorage) IsTagLinked(ctx context.Context, tagID, mapID int64) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Table("map_tags").Where("map_id = ? AND tag_id = ?", mapID, tagID).Count(&count).Error
	if err != nil {
		return false, s.fail("failed to check tag link", err, zap.Int64("tag_id", tagID), zap.Int64("map_id", mapID))
	}
	return count > 0, nil
}

func (s *PostgresStorage) AttachTag(ctx context.Context, tagID, mapID int64) (domain.RefCount, error) {
	var quantity domain.RefCount

	err := s.WithinTx(ctx, func(tx repository.Storage) error {
		txs := tx.(*PostgresStorage)
		if err := txs.db.Exec("INSERT INTO map_tags (map_id, tag_id) VALUES (?, ?)", mapID, tagID).Error; err != nil {
			return txs.fail("failed to link tag", err, zap.Int64("tag_id", tagID), zap.Int64("map_id", mapID))
		}
		var err error
		quantity, err = txs.shift(ctx, "tags", "quantity", "id = ?", 1, tagID)
		return err
	})
	return quantity, err
}

func (s *PostgresStorage) DetachTag(ctx context.Context, tagID, mapID int64) (domain.RefCount, error) {
	var quantity domain.RefCount

	err := s.WithinTx(ctx, func(tx repository.Storage) error {
		txs := tx.(*PostgresStorage)
		result := txs.db.Exec("DELETE FROM map_tags WHERE map_id = ? AND tag_id = ?", mapID, tagID)
		if result.Error != nil {
			return txs.fail("failed to unlink tag", result.Error, zap.Int64("tag_id", tagID), zap.Int64("map_id", mapID))
		}
		if result.RowsAffected == 0 {
			return domain.NotFound("tag is not linked to map")
		}
		var err error
		quantity, err = txs.shift(ctx, "tags", "quantity", "id = ?", -1, tagID)
		return err
	})
	return quantity, err
}

func (s *PostgresStorage) DeleteTag(ctx context.Context, tagID int64) error {
	result := s.db.WithContext(ctx).Delete(&domain.Tag{}, tagID)
	if result.Error != nil {
		return s.fail("failed to delete tag", result.Error, zap.Int64("tag_id", tagID))
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("tag not found")
	}
	return nil
}

func (s *PostgresStorage) ListMapTags(ctx context.Context, mapID int64) ([]domain.Tag, error) {
	var tags []domain.Tag

	err := s.db.WithContext(ctx).
		Joins("JOIN map_tags ON map_tags.tag_id = tags.id").
		Where("map_tags.map_id = ?", mapID).
		Order("tags.id").
		Find(&tags).Error
	if err != nil {
		return nil, s.fail("failed to list map tags", err, zap.Int64("map_id", mapID))
	}
	return tags, nil
}

func (s *PostgresStorage) PopularTags(ctx context.Context, limit int) ([]domain.Tag, error) {
	var tags []domain.Tag

	if err := s.db.WithContext(ctx).Order("quantity DESC, id ASC").Limit(limit).Find(&tags).Error; err != nil {
		return nil, s.fail("failed to list popular tags", err)
	}
	return tags, nil
}

// --- Country Methods ---

func (s *PostgresStorage) GetCountryByName(ctx context.Context, name string) (*domain.Country, error) {
	var country domain.Country

	err := s.db.WithContext(ctx).Where("name = ?", name).First(&country).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("country not found")
	}
	if err != nil {
		return nil, s.fail("failed to get country", err, zap.String("country", name))
	}
	return &country, nil
}

func (s *PostgresStorage) CreateCountry(ctx context.Context, name string) (*domain.Country, error) {
	country := domain.Country{Name: name}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&country).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.Conflict("country already exists")
		}
		return nil, s.fail("failed to create country", err, zap.String("country", name))
	}
	return &country, nil
}

func (s *PostgresStorage) ListCountryNames(ctx context.Context) ([]string, error) {
	var names []string

	if err := s.db.WithContext(ctx).Model(&domain.Country{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, s.fail("failed to list countries", err)
	}
	return names, nil
}

func (s *PostgresStorage) GetMapCountry(ctx context.Context, mapID, countryID int64) (*domain.MapCountry, error) {
	var mc domain.MapCountry

	err := s.db.WithContext(ctx).Where("map_id = ? AND country_id = ?", mapID, countryID).First(&mc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("map country not found")
	}
	if err != nil {
		return nil, s.fail("failed to get map country", err, zap.Int64("map_id", mapID), zap.Int64("country_id", countryID))
	}
	return &mc, nil
}

func (s *PostgresStorage) CreateMapCountry(ctx context.Context, mapID, countryID int64) error {
	mc := domain.MapCountry{MapID: mapID, CountryID: countryID}
	mc.ConnectionCount = mc.ConnectionCount.Attach()

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&mc).Error; err != nil {
		return s.fail("failed to create map country", err, zap.Int64("map_id", mapID), zap.Int64("country_id", countryID))
	}
	return nil
}

func (s *PostgresStorage) AttachMapCountry(ctx context.Context, mapID, countryID int64) (domain.RefCount, error) {
	return s.shift(ctx, "map_countries", "connection_count", "map_id = ? AND country_id = ?", 1, mapID, countryID)
}

func (s *PostgresStorage) DetachMapCountry(ctx context.Context, mapID, countryID int64) (domain.RefCount, error) {
	return s.shift(ctx, "map_countries", "connection_count", "map_id = ? AND country_id = ?", -1, mapID, countryID)
}

func (s *PostgresStorage) DeleteMapCountry(ctx context.Context, mapID, countryID int64) error {
	err := s.db.WithContext(ctx).Where("map_id = ? AND country_id = ?", mapID, countryID).Delete(&domain.MapCountry{}).Error
	if err != nil {
		return s.fail("failed to delete map country", err, zap.Int64("map_id", mapID), zap.Int64("country_id", countryID))
	}
	return nil
}

func (s *PostgresStorage) DeleteMapCountries(ctx context.Context, mapID int64) error {
	if err := s.db.WithContext(ctx).Where("map_id = ?", mapID).Delete(&domain.MapCountry{}).Error; err != nil {
		return s.fail("failed to delete map countries", err, zap.Int64("map_id", mapID))
	}
	return nil
}

// --- Like Methods ---

func (s *PostgresStorage) HasLike(ctx context.Context, userID, mapID int64) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&domain.UserMapLike{}).
		Where("user_id = ? AND map_id = ?", userID, mapID).
		Count(&count).Error
	if err != nil {
		return false, s.fail("failed to check like", err, zap.Int64("user_id", userID), zap.Int64("map_id", mapID))
	}
	return count > 0, nil
}

func (s *PostgresStorage) CreateLike(ctx context.Context, userID, mapID int64) error {
	like := domain.UserMapLike{UserID: userID, MapID: mapID}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Conflict("map is already liked")
		}
		return s.fail("failed to create like", err, zap.Int64("user_id", userID), zap.Int64("map_id", mapID))
	}
	return nil
}

func (s *PostgresStorage) DeleteLike(ctx context.Context, userID, mapID int64) error {
	result := s.db.WithContext(ctx).Where("user_id = ? AND map_id = ?", userID, mapID).Delete(&domain.UserMapLike{})
	if result.Error != nil {
		return s.fail("failed to delete like", result.Error, zap.Int64("user_id", userID), zap.Int64("map_id", mapID))
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("like not found")
	}
	return nil
}

func (s *PostgresStorage) DeleteLikesByMap(ctx context.Context, mapID int64) error {
	if err := s.db.WithContext(ctx).Where("map_id = ?", mapID).Delete(&domain.UserMapLike{}).Error; err != nil {
		return s.fail("failed to delete likes", err, zap.Int64("map_id", mapID))
	}
	return nil
}

func (s *PostgresStorage) ListLikedMapIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64

	err := s.db.WithContext(ctx).Model(&domain.UserMapLike{}).Where("user_id = ?", userID).Order("map_id").Pluck("map_id", &ids).Error
	if err != nil {
		return nil, s.fail("failed to list likes", err, zap.Int64("user_id", userID))
	}
	return ids, nil
}

func (s *PostgresStorage) ListLikedMaps(ctx context.Context, userID int64, page domain.Page) ([]domain.Map, error) {
	q := s.db.WithContext(ctx).Model(&domain.Map{}).
		Joins("JOIN user_map_likes ON user_map_likes.map_id = maps.id").
		Where("user_map_likes.user_id = ? AND maps.uploaded = ?", userID, true)
	return s.listMaps(q, page)
}

// --- Refresh Token Methods ---

func (s *PostgresStorage) CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(token).Error; err != nil {
		return s.fail("failed to create refresh token", err, zap.Int64("user_id", token.UserID))
	}
	return nil
}

func (s *PostgresStorage) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken

	err := s.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("refresh token not found")
	}
	if err != nil {
		return nil, s.fail("failed to get refresh token", err)
	}
	return &rt, nil
}

func (s *PostgresStorage) RevokeRefreshToken(ctx context.Context, token string, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&domain.RefreshToken{}).Where("token = ?", token).
		Updates(map[string]interface{}{"is_revoked": true, "last_used_at": at})
	if result.Error != nil {
		return s.fail("failed to revoke refresh token", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("refresh token not found")
	}
	return nil
}

func (s *PostgresStorage) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	err := s.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true).Error
	if err != nil {
		return s.fail("failed to revoke refresh tokens", err, zap.Int64("user_id", userID))
	}
	return nil
}
