package auditlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"pkgdb/pkgdb/schema"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record is the input of Append.
type Record struct {
	Kind        schema.LogKind
	UserId      int64
	Action      schema.LogAction
	Status      *schema.Status
	Description string
	ChangeTime  time.Time
	TargetId    uuid.UUID
}

// Entry is one row of the merged audit trail.
type Entry struct {
	schema.Log
	TargetId uuid.UUID `json:"target_id"`
}

type subtype struct {
	table        string
	targetColumn string
	newRecord    func(logId int64, targetId uuid.UUID) interface{}
	load         func(txn *gorm.DB, logId int64) (interface{}, error)
}

func loader[T any]() func(*gorm.DB, int64) (interface{}, error) {
	return func(txn *gorm.DB, logId int64) (interface{}, error) {
		var ext T
		if err := txn.Preload("Log").First(&ext, "log_id = ?", logId).Error; err != nil {
			return nil, err
		}
		return &ext, nil
	}
}

var subtypes = map[schema.LogKind]subtype{
	schema.CollectionLogKind: {
		table: "collection_logs", targetColumn: "collection_id",
		newRecord: func(id int64, target uuid.UUID) interface{} {
			return &schema.CollectionLog{LogId: id, CollectionId: target}
		},
		load: loader[schema.CollectionLog](),
	},
	schema.PackageLogKind: {
		table: "package_logs", targetColumn: "package_id",
		newRecord: func(id int64, target uuid.UUID) interface{} {
			return &schema.PackageLog{LogId: id, PackageId: target}
		},
		load: loader[schema.PackageLog](),
	},
	schema.PackageListingLogKind: {
		table: "package_listing_logs", targetColumn: "package_listing_id",
		newRecord: func(id int64, target uuid.UUID) interface{} {
			return &schema.PackageListingLog{LogId: id, PackageListingId: target}
		},
		load: loader[schema.PackageListingLog](),
	},
	schema.PackageVersionLogKind: {
		table: "package_version_logs", targetColumn: "package_version_id",
		newRecord: func(id int64, target uuid.UUID) interface{} {
			return &schema.PackageVersionLog{LogId: id, PackageVersionId: target}
		},
		load: loader[schema.PackageVersionLog](),
	},
	schema.PersonAclLogKind: {
		table: "person_package_listing_acl_logs", targetColumn: "person_package_listing_acl_id",
		newRecord: func(id int64, target uuid.UUID) interface{} {
			return &schema.PersonPackageListingAclLog{LogId: id, PersonPackageListingAclId: target}
		},
		load: loader[schema.PersonPackageListingAclLog](),
	},
	schema.GroupAclLogKind: {
		table: "group_package_listing_acl_logs", targetColumn: "group_package_listing_acl_id",
		newRecord: func(id int64, target uuid.UUID) interface{} {
			return &schema.GroupPackageListingAclLog{LogId: id, GroupPackageListingAclId: target}
		},
		load: loader[schema.GroupPackageListingAclLog](),
	},
}

func (r *Record) validate() error {
	if err := schema.CheckValidLogAction(r.Kind, r.Action); err != nil {
		return err
	}
	if r.TargetId == uuid.Nil {
		return fmt.Errorf("log target must be specified: %w", schema.ErrInvalidRequest)
	}
	if r.Status != nil {
		if err := schema.CheckValidStatus(r.Kind.StatusFamily(), *r.Status); err != nil {
			return err
		}
	}
	return nil
}

// Append writes the base row and its extension row. It joins the caller's
// transaction when txn is one, so a failure rolls back the paired mutation.
func Append(txn *gorm.DB, record Record) (int64, error) {
	if err := record.validate(); err != nil {
		return 0, err
	}

	changeTime := record.ChangeTime
	if changeTime.IsZero() {
		changeTime = time.Now()
	}

	entry := schema.Log{
		Kind:        record.Kind,
		UserId:      record.UserId,
		Action:      record.Action,
		StatusCode:  record.Status,
		Description: record.Description,
		ChangeTime:  changeTime.UTC().Truncate(time.Microsecond),
	}

	err := txn.Transaction(func(txn *gorm.DB) error {
		if err := txn.Create(&entry).Error; err != nil {
			return err
		}
		return txn.Create(subtypes[record.Kind].newRecord(entry.Id, record.TargetId)).Error
	})
	if err != nil {
		slog.Error("sql error appending log", "kind", record.Kind, "target_id", record.TargetId, "error", err)
		return 0, schema.ErrDbAccessFailed
	}

	return entry.Id, nil
}

// LoadSubtype returns the kind specific extension row of an entry, for
// example *schema.PackageLog for package entries.
func LoadSubtype(txn *gorm.DB, entry Entry) (interface{}, error) {
	st, ok := subtypes[entry.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown log kind '%v': %w", entry.Kind, schema.ErrInvalidLogAction)
	}

	ext, err := st.load(txn, entry.Id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", schema.ErrLogNotFound, entry.Id)
		}
		slog.Error("sql error loading log subtype", "log_id", entry.Id, "kind", entry.Kind, "error", err)
		return nil, schema.ErrDbAccessFailed
	}
	return ext, nil
}

// AuditLog binds the log operations to a database handle.
type AuditLog struct {
	db *gorm.DB
}

func New(db *gorm.DB) *AuditLog {
	return &AuditLog{db: db}
}

func (l *AuditLog) Append(ctx context.Context, record Record) (int64, error) {
	return Append(l.db.WithContext(ctx), record)
}

func (l *AuditLog) Get(ctx context.Context, logId int64) (Entry, error) {
	var base schema.Log
	result := l.db.WithContext(ctx).First(&base, "id = ?", logId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Entry{}, fmt.Errorf("%w: %d", schema.ErrLogNotFound, logId)
		}
		slog.Error("sql error getting log entry", "log_id", logId, "error", result.Error)
		return Entry{}, schema.ErrDbAccessFailed
	}

	entries, err := attachTargets(l.db.WithContext(ctx), []schema.Log{base})
	if err != nil {
		return Entry{}, err
	}
	return entries[0], nil
}

func (l *AuditLog) LoadSubtype(ctx context.Context, entry Entry) (interface{}, error) {
	return LoadSubtype(l.db.WithContext(ctx), entry)
}

func (l *AuditLog) Query(filter Filter, opts ...ListOption) *Cursor {
	return Query(l.db, filter, opts...)
}

type targetRow struct {
	LogId    int64
	TargetId uuid.UUID
}

// attachTargets resolves the target of every row with one query per kind.
func attachTargets(db *gorm.DB, logs []schema.Log) ([]Entry, error) {
	byKind := map[schema.LogKind][]int64{}
	for _, l := range logs {
		byKind[l.Kind] = append(byKind[l.Kind], l.Id)
	}

	targets := make(map[int64]uuid.UUID, len(logs))
	for kind, ids := range byKind {
		st, ok := subtypes[kind]
		if !ok {
			slog.Error("log row with unknown kind", "kind", kind)
			return nil, schema.ErrDbAccessFailed
		}

		var rows []targetRow
		result := db.Table(st.table).
			Select(fmt.Sprintf("log_id, %v AS target_id", st.targetColumn)).
			Where("log_id IN ?", ids).
			Scan(&rows)
		if result.Error != nil {
			slog.Error("sql error loading log targets", "kind", kind, "error", result.Error)
			return nil, schema.ErrDbAccessFailed
		}
		for _, row := range rows {
			targets[row.LogId] = row.TargetId
		}
	}

	entries := make([]Entry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, Entry{Log: l, TargetId: targets[l.Id]})
	}
	return entries, nil
}
