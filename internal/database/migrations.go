package database

import (
	"MapHub-Backend/internal/domain"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate выполняет автоматические миграции для всех доменных моделей
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("starting database auto-migration")

	// Порядок миграций важен из-за внешних ключей
	models := []interface{}{
		&domain.User{},         // Сначала пользователи
		&domain.Country{},      // Справочник стран
		&domain.Map{},          // Карты (зависят от пользователей), создает map_tags
		&domain.Tag{},          // Теги
		&domain.Place{},        // Места (зависят от карт)
		&domain.MapCountry{},   // Связь карта-страна со счетчиком
		&domain.UserMapLike{},  // Лайки (зависят от пользователей и карт)
		&domain.RefreshToken{}, // Refresh токены (зависят от пользователей)
	}

	log.Info("migrating database models", zap.Int("total_models", len(models)))

	for i, model := range models {
		modelName := fmt.Sprintf("%T", model)
		log.Info("migrating model",
			zap.String("model", modelName),
			zap.Int("step", i+1),
			zap.Int("total", len(models)))

		if err := db.AutoMigrate(model); err != nil {
			log.Error("failed to migrate model",
				zap.String("model", modelName),
				zap.Error(err))
			return fmt.Errorf("failed to migrate model %s: %w", modelName, err)
		}

		log.Info("model migrated successfully", zap.String("model", modelName))
	}

	log.Info("database auto-migration completed successfully", zap.Int("migrated_models", len(models)))
	return nil
}

// defaultCountries заполняют справочник, чтобы фильтр по стране работал на пустой базе
var defaultCountries = []string{
	"Austria", "Czechia", "France", "Germany", "Italy", "Lithuania",
	"Poland", "Slovakia", "Spain", "Ukraine", "United Kingdom",
}

// SeedData заполняет базу данных начальными данными
func SeedData(db *gorm.DB, log *zap.Logger) error {
	log.Info("starting database seeding")

	// Проверяем, есть ли уже данные
	var count int64
	if err := db.Model(&domain.Country{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count countries: %w", err)
	}
	if count > 0 {
		log.Info("countries already exist, skipping seeding", zap.Int64("existing_count", count))
		return nil
	}

	countries := make([]domain.Country, 0, len(defaultCountries))
	for _, name := range defaultCountries {
		countries = append(countries, domain.Country{Name: name})
	}

	log.Info("creating countries", zap.Int("countries_count", len(countries)))

	if err := db.Create(&countries).Error; err != nil {
		log.Error("failed to seed countries", zap.Error(err))
		return fmt.Errorf("failed to seed countries: %w", err)
	}

	log.Info("database seeding completed successfully", zap.Int("countries_created", len(countries)))
	return nil
}
