package exportwin

import (
	"context"
	"errors"

	searchapp "datahub-backend/internal/application/search"
	"datahub-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SoftDelete hides a win from every listing. The row is kept.
func (s *Service) SoftDelete(ctx context.Context, id, adviserID uuid.UUID) (*domain.Win, error) {
	return s.setDeleted(ctx, id, adviserID, true, "Soft deleted")
}

// Undelete restores a soft deleted win.
func (s *Service) Undelete(ctx context.Context, id, adviserID uuid.UUID) (*domain.Win, error) {
	return s.setDeleted(ctx, id, adviserID, false, "Undeleted")
}

func (s *Service) setDeleted(ctx context.Context, id, adviserID uuid.UUID, deleted bool, comment string) (*domain.Win, error) {
	var w domain.Win
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND is_deleted = ?", id, !deleted).First(&w).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		w.IsDeleted = deleted
		w.ModifiedByID = &adviserID
		err = tx.Model(&w).UpdateColumns(map[string]interface{}{
			"is_deleted":     deleted,
			"modified_by_id": adviserID,
		}).Error
		if err != nil {
			return err
		}
		return domain.SaveRevision(tx, comment, &adviserID, w)
	})
	if err != nil {
		return nil, err
	}
	searchapp.Publish(ctx, s.Search, searchapp.IndexExportWin, w.ID, searchapp.NewWinDocument(w))
	return &w, nil
}
