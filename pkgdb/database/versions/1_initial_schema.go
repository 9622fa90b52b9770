package versions

import (
	"log"
	"pkgdb/pkgdb/schema"

	"gorm.io/gorm"
)

func Migration_1_initial_schema(txn *gorm.DB) error {
	log.Println("creating initial pkgdb schema")

	if err := txn.Migrator().AutoMigrate(schema.AllModels()...); err != nil {
		return err
	}

	log.Println("initial pkgdb schema created")
	return nil
}

func Rollback_1_initial_schema(txn *gorm.DB) error {
	models := schema.AllModels()
	// package_tags is created implicitly by the many2many relation
	if err := txn.Migrator().DropTable("package_tags"); err != nil {
		return err
	}
	for i := len(models) - 1; i >= 0; i-- {
		if err := txn.Migrator().DropTable(models[i]); err != nil {
			return err
		}
	}
	return nil
}
