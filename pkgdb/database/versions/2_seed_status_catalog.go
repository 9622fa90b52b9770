package versions

import (
	"log"
	"pkgdb/pkgdb/catalog"
	"pkgdb/pkgdb/schema"

	"gorm.io/gorm"
)

func Migration_2_seed_status_catalog(txn *gorm.DB) error {
	log.Println("seeding status catalog")

	if err := catalog.Seed(txn); err != nil {
		return err
	}

	log.Println("status catalog seeded")
	return nil
}

// Rollback_2_seed_status_catalog empties the catalog tables. It fails while
// entities still reference a status code or language.
func Rollback_2_seed_status_catalog(txn *gorm.DB) error {
	seeded := []interface{}{
		&schema.CollectionStatusCode{}, &schema.PackageStatusCode{}, &schema.PackageListingStatusCode{},
		&schema.PackageVersionStatusCode{}, &schema.AclStatusCode{},
		&schema.StatusTranslation{}, &schema.StatusCode{}, &schema.Language{},
	}
	for _, model := range seeded {
		if err := txn.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
