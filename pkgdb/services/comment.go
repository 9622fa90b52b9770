package services

import (
	"context"
	"pkgdb/pkgdb/schema"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentService struct {
	db *gorm.DB
}

type AddCommentRequest struct {
	VersionId uuid.UUID `json:"version_id" validate:"required"`
	Author    int64     `json:"author"`
	Language  string    `json:"language"`
	Body      string    `json:"body" validate:"required"`
	Published bool      `json:"published"`
}

func (s *CommentService) Add(ctx context.Context, req AddCommentRequest) (schema.Comment, error) {
	if err := validateRequest(req); err != nil {
		return schema.Comment{}, err
	}
	language := req.Language
	if language == "" {
		language = schema.DefaultLanguage
	}

	comment := schema.Comment{
		Id:               uuid.New(),
		PackageVersionId: req.VersionId,
		Author:           req.Author,
		LanguageCode:     language,
		Body:             req.Body,
		Published:        req.Published,
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}

	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := checkVersionExists(txn, req.VersionId); err != nil {
			return err
		}
		if _, err := schema.GetLanguage(language, txn); err != nil {
			return err
		}
		return txn.Create(&comment).Error
	})
	if err != nil {
		return schema.Comment{}, dbError(err, "adding comment", "version_id", req.VersionId)
	}

	return comment, nil
}

func (s *CommentService) List(ctx context.Context, versionId uuid.UUID, publishedOnly bool) ([]schema.Comment, error) {
	query := s.db.WithContext(ctx).Where("package_version_id = ?", versionId)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var comments []schema.Comment
	if err := query.Order("created_at").Find(&comments).Error; err != nil {
		return nil, dbError(err, "listing comments", "version_id", versionId)
	}
	return comments, nil
}
