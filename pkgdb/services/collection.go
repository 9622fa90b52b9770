package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"pkgdb/pkgdb/schema"
	"pkgdb/utils/logging"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CollectionService struct {
	db *gorm.DB
}

type CreateCollectionRequest struct {
	Name        string        `json:"name" validate:"required,max=64"`
	Version     string        `json:"version" validate:"required,max=32"`
	Status      schema.Status `json:"status"`
	Owner       int64         `json:"owner"`
	Summary     string        `json:"summary"`
	Description string        `json:"description"`

	PublishUrlTemplate *string `json:"publish_url_template,omitempty"`
	PendingUrlTemplate *string `json:"pending_url_template,omitempty"`
}

type CreateBranchRequest struct {
	CreateCollectionRequest

	ParentId   uuid.UUID `json:"parent_id" validate:"required"`
	BranchName string    `json:"branch_name" validate:"required,max=32"`
	DistTag    string    `json:"disttag" validate:"required,max=32"`
}

func (req *CreateCollectionRequest) newCollection() (schema.Collection, error) {
	status := req.Status
	if status == 0 {
		status = schema.UnderDevelopment
	}
	if err := schema.CheckInitialStatus(schema.CollectionFamily, status); err != nil {
		return schema.Collection{}, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	return schema.Collection{
		Id:                 uuid.New(),
		Name:               req.Name,
		Version:            req.Version,
		StatusCode:         status,
		Owner:              req.Owner,
		Summary:            req.Summary,
		Description:        req.Description,
		PublishUrlTemplate: req.PublishUrlTemplate,
		PendingUrlTemplate: req.PendingUrlTemplate,
		CreatedAt:          now,
		StatusChangeTime:   now,
	}, nil
}

func (s *CollectionService) Create(ctx context.Context, actor int64, req CreateCollectionRequest) (schema.Collection, error) {
	if err := validateRequest(req); err != nil {
		return schema.Collection{}, err
	}
	collection, err := req.newCollection()
	if err != nil {
		return schema.Collection{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Create(&collection).Error; err != nil {
			return err
		}
		return appendAdded(txn, &collection, actor, fmt.Sprintf("collection %v %v created", collection.Name, collection.Version))
	})
	if err != nil {
		return schema.Collection{}, dbError(err, "creating collection", "name", req.Name, "version", req.Version)
	}

	recordCreated(schema.CollectionLogKind)
	slog.Info("collection created", "collection_id", collection.Id, "name", collection.Name, "version", collection.Version, "code", logging.ENTITY_CREATE)
	return collection, nil
}

// CreateBranch creates a collection that extends an existing parent.
func (s *CollectionService) CreateBranch(ctx context.Context, actor int64, req CreateBranchRequest) (schema.Collection, error) {
	if err := validateRequest(req); err != nil {
		return schema.Collection{}, err
	}
	collection, err := req.newCollection()
	if err != nil {
		return schema.Collection{}, err
	}
	collection.Branch = &schema.Branch{
		CollectionId: collection.Id,
		BranchName:   req.BranchName,
		DistTag:      req.DistTag,
		ParentId:     req.ParentId,
	}

	err = s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := checkCollectionExists(txn, req.ParentId); err != nil {
			if errors.Is(err, schema.ErrNotFound) {
				return fmt.Errorf("parent collection %v does not exist: %w", req.ParentId, schema.ErrInvalidHierarchy)
			}
			return err
		}

		if err := txn.Create(&collection).Error; err != nil {
			return err
		}
		return appendAdded(txn, &collection, actor, fmt.Sprintf("branch %v created from %v", req.BranchName, req.ParentId))
	})
	if err != nil {
		return schema.Collection{}, dbError(err, "creating branch", "branch", req.BranchName, "parent_id", req.ParentId)
	}

	recordCreated(schema.CollectionLogKind)
	slog.Info("branch created", "collection_id", collection.Id, "branch", req.BranchName, "parent_id", req.ParentId, "code", logging.ENTITY_CREATE)
	return collection, nil
}

// Reparent moves a branch under another collection. The chain of parents
// must stay acyclic.
func (s *CollectionService) Reparent(ctx context.Context, branchId, parentId uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		branch, err := schema.GetCollection(branchId, txn)
		if err != nil {
			return err
		}
		if !branch.IsBranch() {
			return fmt.Errorf("collection %v is not a branch: %w", branchId, schema.ErrInvalidHierarchy)
		}

		if err := checkCollectionExists(txn, parentId); err != nil {
			if errors.Is(err, schema.ErrNotFound) {
				return fmt.Errorf("parent collection %v does not exist: %w", parentId, schema.ErrInvalidHierarchy)
			}
			return err
		}

		chain, err := ancestors(txn, parentId)
		if err != nil {
			return err
		}
		if parentId == branchId {
			return fmt.Errorf("collection %v cannot be its own parent: %w", branchId, schema.ErrInvalidHierarchy)
		}
		for _, c := range chain {
			if c.Id == branchId {
				return fmt.Errorf("moving %v under %v creates a cycle: %w", branchId, parentId, schema.ErrInvalidHierarchy)
			}
		}

		result := txn.Model(&schema.Branch{}).Where("collection_id = ?", branchId).Update("parent_id", parentId)
		if result.Error != nil {
			return result.Error
		}
		return nil
	})
	if err != nil {
		return dbError(err, "reparenting branch", "branch_id", branchId, "parent_id", parentId)
	}

	slog.Info("branch reparented", "collection_id", branchId, "parent_id", parentId, "code", logging.ENTITY_STATUS)
	return nil
}

// ancestors returns the parents of a collection, nearest first.
func ancestors(txn *gorm.DB, collectionId uuid.UUID) ([]schema.Collection, error) {
	visited := map[uuid.UUID]struct{}{collectionId: {}}
	chain := []schema.Collection{}

	current, err := schema.GetCollection(collectionId, txn)
	if err != nil {
		return nil, err
	}
	for current.IsBranch() {
		parentId := current.Branch.ParentId
		if _, ok := visited[parentId]; ok {
			return nil, fmt.Errorf("cycle detected at collection %v: %w", parentId, schema.ErrInvalidHierarchy)
		}
		visited[parentId] = struct{}{}

		current, err = schema.GetCollection(parentId, txn)
		if err != nil {
			return nil, err
		}
		chain = append(chain, current)
	}
	return chain, nil
}

func (s *CollectionService) Ancestors(ctx context.Context, collectionId uuid.UUID) ([]schema.Collection, error) {
	chain, err := ancestors(s.db.WithContext(ctx), collectionId)
	if err != nil {
		return nil, dbError(err, "listing collection ancestors", "collection_id", collectionId)
	}
	return chain, nil
}

func (s *CollectionService) Get(ctx context.Context, collectionId uuid.UUID) (schema.Collection, error) {
	return schema.GetCollection(collectionId, s.db.WithContext(ctx))
}

func (s *CollectionService) List(ctx context.Context) ([]schema.Collection, error) {
	var collections []schema.Collection
	result := s.db.WithContext(ctx).Preload("Branch").Order("name, version").Find(&collections)
	if result.Error != nil {
		return nil, dbError(result.Error, "listing collections")
	}
	return collections, nil
}

func (s *CollectionService) SetStatus(ctx context.Context, actor int64, collectionId uuid.UUID, status schema.Status, reason string) (schema.Collection, error) {
	return setStatus(s.db.WithContext(ctx), collectionId, schema.GetCollection, statusChange{
		to: status, action: schema.StatusChanged, actor: actor, reason: reason,
	})
}
