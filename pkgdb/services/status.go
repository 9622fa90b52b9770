package services

import (
	"fmt"
	"pkgdb/pkgdb/auditlog"
	"pkgdb/pkgdb/schema"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type statusEntity[T any] interface {
	*T
	schema.StatusHolder
}

// compareAndSetStatus moves the row from status from to status to. It fails
// with ErrConflict if another transaction changed the status since it was read.
func compareAndSetStatus[T any, PT statusEntity[T]](txn *gorm.DB, id uuid.UUID, from, to schema.Status, changeTime time.Time) error {
	result := txn.Model(PT(new(T))).
		Where("id = ? AND status_code = ?", id, from).
		Updates(map[string]interface{}{"status_code": to, "status_change_time": changeTime})
	if result.Error != nil {
		return dbError(result.Error, "updating status", "id", id, "status", to)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("status of %v changed from %v concurrently: %w", id, from, schema.ErrConflict)
	}
	return nil
}

type statusChange struct {
	to     schema.Status
	action schema.LogAction
	actor  int64
	reason string
}

// applyStatusChange validates the transition for the loaded entity, updates
// the row and appends the audit entry. It must run inside a transaction.
func applyStatusChange[T any, PT statusEntity[T]](txn *gorm.DB, entity PT, change statusChange) error {
	from := entity.CurrentStatus()
	if err := schema.CheckTransition(entity.StatusFamily(), from, change.to); err != nil {
		return err
	}

	changeTime := schema.NextChangeTime(entity.LastStatusChange())
	if err := compareAndSetStatus[T, PT](txn, entity.GetId(), from, change.to, changeTime); err != nil {
		return err
	}
	entity.SetStatusFields(change.to, changeTime)

	to := change.to
	_, err := auditlog.Append(txn, auditlog.Record{
		Kind:        entity.LogKind(),
		UserId:      change.actor,
		Action:      change.action,
		Status:      &to,
		Description: change.reason,
		ChangeTime:  changeTime,
		TargetId:    entity.GetId(),
	})
	return err
}

// setStatus loads the entity with get and applies the change in one
// transaction.
func setStatus[T any, PT statusEntity[T]](db *gorm.DB, id uuid.UUID, get func(uuid.UUID, *gorm.DB) (T, error), change statusChange) (T, error) {
	timer := prometheus.NewTimer(statusChangeMetric)
	defer timer.ObserveDuration()

	var entity T
	err := db.Transaction(func(txn *gorm.DB) error {
		var err error
		entity, err = get(id, txn)
		if err != nil {
			return err
		}
		return applyStatusChange[T, PT](txn, PT(&entity), change)
	})
	recordStatusChange(PT(&entity).StatusFamily(), change.to, err)
	if err != nil {
		var zero T
		return zero, dbError(err, "changing status", "id", id, "status", change.to)
	}
	return entity, nil
}

// appendAdded records the creation of an entity.
func appendAdded(txn *gorm.DB, entity schema.StatusHolder, actor int64, description string) error {
	status := entity.CurrentStatus()
	_, err := auditlog.Append(txn, auditlog.Record{
		Kind:        entity.LogKind(),
		UserId:      actor,
		Action:      schema.Added,
		Status:      &status,
		Description: description,
		ChangeTime:  entity.LastStatusChange(),
		TargetId:    entity.GetId(),
	})
	return err
}
