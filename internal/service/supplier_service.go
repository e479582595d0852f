package service

import (
	"context"
	"errors"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/model"
	"github.com/janesh-web3/RMS-demo-sub001/internal/repository"

	"github.com/google/uuid"
)

type SupplierService interface {
	Create(ctx context.Context, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error)
	List(ctx context.Context, includeInactive bool) ([]dto.SupplierResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	AddContact(ctx context.Context, id uuid.UUID, req dto.SupplierContactRequest) (*dto.SupplierResponse, error)
}

type supplierService struct {
	repo repository.SupplierRepository
}

func NewSupplierService(repo repository.SupplierRepository) SupplierService {
	return &supplierService{repo: repo}
}

func (s *supplierService) Create(ctx context.Context, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	supplier := &model.Supplier{
		Name:         req.Name,
		TaxID:        req.TaxID,
		Phone:        req.Phone,
		Email:        req.Email,
		Address:      req.Address,
		PaymentTerms: req.PaymentTerms,
		Active:       true,
	}
	if supplier.PaymentTerms == "" {
		supplier.PaymentTerms = "cash"
	}
	for _, c := range req.Contacts {
		supplier.Contacts = append(supplier.Contacts, model.SupplierContact{
			Name: c.Name, Role: c.Role, Phone: c.Phone, Email: c.Email,
		})
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	resp := supplierToResponse(supplier)
	return &resp, nil
}

func (s *supplierService) GetByID(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("supplier not found")
	}
	resp := supplierToResponse(supplier)
	return &resp, nil
}

func (s *supplierService) List(ctx context.Context, includeInactive bool) ([]dto.SupplierResponse, error) {
	suppliers, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.SupplierResponse, len(suppliers))
	for i := range suppliers {
		resp[i] = supplierToResponse(&suppliers[i])
	}
	return resp, nil
}

func (s *supplierService) Update(ctx context.Context, id uuid.UUID, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("supplier not found")
	}
	supplier.Name = req.Name
	supplier.TaxID = req.TaxID
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address
	if req.PaymentTerms != "" {
		supplier.PaymentTerms = req.PaymentTerms
	}
	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	resp := supplierToResponse(supplier)
	return &resp, nil
}

func (s *supplierService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return errors.New("supplier not found")
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *supplierService) AddContact(ctx context.Context, id uuid.UUID, req dto.SupplierContactRequest) (*dto.SupplierResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, errors.New("supplier not found")
	}
	contact := &model.SupplierContact{
		SupplierID: id,
		Name:       req.Name,
		Role:       req.Role,
		Phone:      req.Phone,
		Email:      req.Email,
	}
	if err := s.repo.AddContact(ctx, contact); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func supplierToResponse(s *model.Supplier) dto.SupplierResponse {
	resp := dto.SupplierResponse{
		ID:           s.ID.String(),
		Name:         s.Name,
		TaxID:        s.TaxID,
		Phone:        s.Phone,
		Email:        s.Email,
		Address:      s.Address,
		PaymentTerms: s.PaymentTerms,
		Active:       s.Active,
	}
	for _, c := range s.Contacts {
		resp.Contacts = append(resp.Contacts, dto.SupplierContactResponse{
			ID: c.ID.String(), Name: c.Name, Role: c.Role, Phone: c.Phone, Email: c.Email,
		})
	}
	return resp
}
