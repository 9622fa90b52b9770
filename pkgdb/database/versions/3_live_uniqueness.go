package versions

import (
	"fmt"
	"log"
	"pkgdb/pkgdb/schema"

	"gorm.io/gorm"
)

type liveIndex struct {
	model   interface{}
	name    string
	columns string
	where   string
}

// Partial unique indexes so that concurrent creates cannot both pass the
// application level duplicate check.
func liveIndexes() []liveIndex {
	liveAcl := fmt.Sprintf("status_code IN (%d, %d)", schema.AwaitingReview, schema.Approved)
	return []liveIndex{
		{
			model:   &schema.PackageListing{},
			name:    "idx_package_listing_live",
			columns: "package_id, collection_id",
			where:   fmt.Sprintf("status_code <> %d", schema.Denied),
		},
		{
			model:   &schema.PersonPackageListingAcl{},
			name:    "idx_person_acl_live",
			columns: "package_listing_id, user_id, role",
			where:   liveAcl,
		},
		{
			model:   &schema.GroupPackageListingAcl{},
			name:    "idx_group_acl_live",
			columns: "package_listing_id, group_id, role",
			where:   liveAcl,
		},
	}
}

func Migration_3_live_uniqueness(txn *gorm.DB) error {
	log.Println("adding live uniqueness indexes")

	for _, idx := range liveIndexes() {
		stmt := &gorm.Statement{DB: txn}
		if err := stmt.Parse(idx.model); err != nil {
			return err
		}
		sql := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s) WHERE %s", idx.name, stmt.Schema.Table, idx.columns, idx.where)
		if err := txn.Exec(sql).Error; err != nil {
			return err
		}
	}

	log.Println("live uniqueness indexes added")
	return nil
}

func Rollback_3_live_uniqueness(txn *gorm.DB) error {
	for _, idx := range liveIndexes() {
		if err := txn.Migrator().DropIndex(idx.model, idx.name); err != nil {
			return err
		}
	}
	return nil
}
