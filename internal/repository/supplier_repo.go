package repository

import (
	"context"

	"github.com/janesh-web3/RMS-demo-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, s *model.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	List(ctx context.Context, includeInactive bool) ([]model.Supplier, error)
	Update(ctx context.Context, s *model.Supplier) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	AddContact(ctx context.Context, c *model.SupplierContact) error
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepository(db *gorm.DB) SupplierRepository { return &supplierRepo{db: db} }

func (r *supplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).Preload("Contacts").First(&s, id).Error
	return &s, err
}

func (r *supplierRepo) List(ctx context.Context, includeInactive bool) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	q := r.db.WithContext(ctx).Preload("Contacts")
	if !includeInactive {
		q = q.Where("active = true")
	}
	err := q.Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepo) Update(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *supplierRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Supplier{}).
		Where("id = ?", id).Update("active", false).Error
}

func (r *supplierRepo) AddContact(ctx context.Context, c *model.SupplierContact) error {
	return r.db.WithContext(ctx).Create(c).Error
}
