package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Revision groups the versions saved by one change set.
type Revision struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Comment   string     `gorm:"column:comment" json:"comment"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid" json:"user_id"`
	CreatedOn time.Time  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
}

func (Revision) TableName() string {
	return "reversion_revision"
}

func (r *Revision) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Version is a JSON snapshot of an object taken within a revision.
type Version struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RevisionID uuid.UUID      `gorm:"column:revision_id;type:uuid;index" json:"revision_id"`
	ObjectType string         `gorm:"column:object_type;index:idx_version_object" json:"object_type"`
	ObjectID   string         `gorm:"column:object_id;index:idx_version_object" json:"object_id"`
	Snapshot   datatypes.JSON `gorm:"column:serialized_data" json:"serialized_data"`
	CreatedOn  time.Time      `gorm:"column:created_on;autoCreateTime" json:"created_on"`
}

func (Version) TableName() string {
	return "reversion_version"
}

func (v *Version) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// SaveRevision stores a snapshot of each object under one revision.
func SaveRevision(tx *gorm.DB, comment string, userID *uuid.UUID, objects ...Versioned) error {
	rev := &Revision{Comment: comment, UserID: userID}
	if err := tx.Create(rev).Error; err != nil {
		return err
	}
	for _, obj := range objects {
		b, err := json.Marshal(obj)
		if err != nil {
			return err
		}
		v := &Version{
			RevisionID: rev.ID,
			ObjectType: obj.TableName(),
			ObjectID:   obj.VersionKey(),
			Snapshot:   datatypes.JSON(b),
		}
		if err := tx.Create(v).Error; err != nil {
			return err
		}
	}
	return nil
}

// Versioned is a model that can be snapshotted.
type Versioned interface {
	TableName() string
	VersionKey() string
}

func (c Company) VersionKey() string { return c.ID.String() }
func (w Win) VersionKey() string     { return w.ID.String() }
func (c Contact) VersionKey() string { return c.ID.String() }
