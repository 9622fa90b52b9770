package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"pkgdb/pkgdb/schema"
	"pkgdb/utils/logging"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog resolves status codes to localized names.
type Catalog struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// ListStatuses returns the closed, ordered set of codes for a family.
func (c *Catalog) ListStatuses(family schema.Family) ([]schema.Status, error) {
	return schema.FamilyStatuses(family)
}

// Translate looks up the translation for the language, falling back to the
// default language when none exists.
func (c *Catalog) Translate(ctx context.Context, status schema.Status, language string) (schema.StatusTranslation, error) {
	if language == "" {
		language = schema.DefaultLanguage
	}

	var translations []schema.StatusTranslation
	result := c.db.WithContext(ctx).
		Where("status_code_id = ?", status).
		Where("language IN ?", []string{language, schema.DefaultLanguage}).
		Find(&translations)
	if result.Error != nil {
		slog.Error("sql error looking up status translation", "status", status, "language", language, "error", result.Error)
		return schema.StatusTranslation{}, schema.ErrDbAccessFailed
	}

	var fallback *schema.StatusTranslation
	for i := range translations {
		if translations[i].Language == language {
			return translations[i], nil
		}
		if translations[i].Language == schema.DefaultLanguage {
			fallback = &translations[i]
		}
	}
	if fallback != nil {
		return *fallback, nil
	}

	return schema.StatusTranslation{}, fmt.Errorf("%w: status %d language %v", schema.ErrTranslationNotFound, int(status), language)
}

// Translations lists every language available for a status code.
func (c *Catalog) Translations(ctx context.Context, status schema.Status) ([]schema.StatusTranslation, error) {
	var translations []schema.StatusTranslation
	result := c.db.WithContext(ctx).Where("status_code_id = ?", status).Order("language").Find(&translations)
	if result.Error != nil {
		slog.Error("sql error listing status translations", "status", status, "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}
	return translations, nil
}

func checkKnownStatus(status schema.Status) error {
	for _, s := range schema.AllStatuses() {
		if s == status {
			return nil
		}
	}
	return fmt.Errorf("unknown status code %d: %w", int(status), schema.ErrInvalidStatus)
}

// AddTranslation inserts or replaces a translation.
func (c *Catalog) AddTranslation(ctx context.Context, translation schema.StatusTranslation) error {
	return addTranslation(c.db.WithContext(ctx), translation)
}

func addTranslation(txn *gorm.DB, translation schema.StatusTranslation) error {
	if err := checkKnownStatus(translation.StatusCodeId); err != nil {
		return err
	}
	if translation.Language == "" || translation.StatusName == "" {
		return fmt.Errorf("translation language and name must be specified: %w", schema.ErrInvalidRequest)
	}

	result := txn.Clauses(clause.OnConflict{UpdateAll: true}).Create(&translation)
	if result.Error != nil {
		slog.Error("sql error saving status translation", "status", translation.StatusCodeId, "language", translation.Language, "error", result.Error)
		return schema.ErrDbAccessFailed
	}

	slog.Info("status translation saved", "status", translation.StatusCodeId, "language", translation.Language, "code", logging.CATALOG_IMPORT)
	return nil
}

type translationFile struct {
	Translations []struct {
		Status      string `yaml:"status"`
		Language    string `yaml:"language"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"translations"`
}

// LoadTranslations imports a YAML document of translations in one transaction
// and returns the number of rows saved.
func (c *Catalog) LoadTranslations(ctx context.Context, r io.Reader) (int, error) {
	var file translationFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("error decoding translations: %v: %w", err, schema.ErrInvalidRequest)
	}

	translations := make([]schema.StatusTranslation, 0, len(file.Translations))
	for _, t := range file.Translations {
		status, err := schema.ParseStatus(t.Status)
		if err != nil {
			return 0, err
		}
		translations = append(translations, schema.StatusTranslation{
			StatusCodeId: status,
			Language:     strings.TrimSpace(t.Language),
			StatusName:   t.Name,
			Description:  t.Description,
		})
	}

	err := c.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		for _, t := range translations {
			if err := addTranslation(txn, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(translations), nil
}

func (c *Catalog) AddLanguage(ctx context.Context, language schema.Language) error {
	if language.ShortName == "" || language.Name == "" {
		return fmt.Errorf("language short name and name must be specified: %w", schema.ErrInvalidRequest)
	}

	result := c.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&language)
	if result.Error != nil {
		slog.Error("sql error saving language", "language", language.ShortName, "error", result.Error)
		return schema.ErrDbAccessFailed
	}
	return nil
}

func (c *Catalog) Languages(ctx context.Context) ([]schema.Language, error) {
	var languages []schema.Language
	if result := c.db.WithContext(ctx).Order("short_name").Find(&languages); result.Error != nil {
		slog.Error("sql error listing languages", "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}
	return languages, nil
}

// Seed inserts the status codes, the family tables, the default language
// names and the base languages. Existing rows are left untouched.
func Seed(txn *gorm.DB) error {
	ignore := clause.OnConflict{DoNothing: true}

	for _, status := range schema.AllStatuses() {
		if err := txn.Clauses(ignore).Create(&schema.StatusCode{Id: status}).Error; err != nil {
			return fmt.Errorf("error seeding status code %v: %w", status, err)
		}
		translation := schema.StatusTranslation{
			StatusCodeId: status,
			Language:     schema.DefaultLanguage,
			StatusName:   status.CanonicalName(),
			Description:  status.CanonicalDescription(),
		}
		if err := txn.Clauses(ignore).Create(&translation).Error; err != nil {
			return fmt.Errorf("error seeding translation for %v: %w", status, err)
		}
	}

	for _, family := range schema.Families() {
		statuses, err := schema.FamilyStatuses(family)
		if err != nil {
			return err
		}
		for _, status := range statuses {
			if err := txn.Clauses(ignore).Create(schema.FamilyStatusCodeModel(family, status)).Error; err != nil {
				return fmt.Errorf("error seeding %v status %v: %w", family, status, err)
			}
		}
	}

	languages := []schema.Language{
		{ShortName: schema.DefaultLanguage, Name: "Canonical"},
		{ShortName: "en_US", Name: "English (United States)"},
	}
	if err := txn.Clauses(ignore).Create(&languages).Error; err != nil {
		return fmt.Errorf("error seeding languages: %w", err)
	}

	slog.Info("status catalog seeded", "statuses", len(schema.AllStatuses()), "code", logging.CATALOG_SEED)
	return nil
}
