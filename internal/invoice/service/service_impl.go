package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	"github.com/smallbiznis/autocharge/internal/invoice/format"
	"github.com/smallbiznis/autocharge/pkg/db"
	"github.com/smallbiznis/autocharge/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNumberAttempts = 3

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  invoicedomain.Repository
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	repo  invoicedomain.Repository
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if req.CustomerID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCustomer
	}
	if !req.Amount.Currency.Valid() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCurrency
	}
	if !req.Amount.Value.IsPositive() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidAmount
	}
	status := req.Status
	if status == "" {
		status = invoicedomain.InvoiceStatusPending
	}
	if !status.Valid() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidStatus
	}

	now := time.Now().UTC()
	invoice := invoicedomain.Invoice{
		ID:         s.genID.Generate(),
		CustomerID: req.CustomerID,
		Value:      req.Amount.Value,
		Currency:   req.Amount.Currency,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	prefix, err := format.SequencePrefix(format.DefaultInvoiceNumberTemplate, now)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	// A concurrent insert can read the same last number; retry on the
	// unique index.
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			last, err := s.repo.LastNumber(ctx, tx, prefix)
			if err != nil {
				return err
			}
			seq := format.ParseSequence(last, prefix) + 1
			number, err := format.FormatInvoiceNumber(format.DefaultInvoiceNumberTemplate, now, seq)
			if err != nil {
				return err
			}
			invoice.Number = number
			return s.repo.Insert(ctx, tx, &invoice)
		})
		if err == nil || !db.IsDuplicateKeyErr(err) {
			break
		}
	}
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	return invoice, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	filter := invoicedomain.ListInvoiceFilter{}
	if status := strings.ToUpper(strings.TrimSpace(req.Status)); status != "" {
		filter.Status = invoicedomain.InvoiceStatus(status)
		if !filter.Status.Valid() {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidStatus
		}
	}
	if strings.TrimSpace(req.CustomerID) != "" {
		id, err := parseID(req.CustomerID)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidCustomer
		}
		filter.CustomerID = id
	}

	page := pagination.Pagination{PageToken: req.PageToken, PageSize: int(req.PageSize)}
	rows, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	items, info := pagination.Page(rows, page.Limit(), func(invoice *invoicedomain.Invoice) int64 {
		return invoice.ID.Int64()
	})
	return invoicedomain.ListInvoiceResponse{Invoices: items, PageInfo: info}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return s.Fetch(ctx, invoiceID)
}

func (s *Service) Fetch(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if item == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) ListOutstandingIDs(ctx context.Context) ([]snowflake.ID, error) {
	return s.repo.ListIDsByStatus(ctx, s.db, invoicedomain.InvoiceStatusPending)
}

func (s *Service) SetStatus(ctx context.Context, id snowflake.ID, status invoicedomain.InvoiceStatus) error {
	if !status.Valid() {
		return invoicedomain.ErrInvalidStatus
	}
	ok, err := s.repo.UpdateStatus(ctx, s.db, id, status)
	if err != nil {
		return err
	}
	if !ok {
		return invoicedomain.ErrNotFound
	}
	return nil
}

func (s *Service) MarkPaid(ctx context.Context, id snowflake.ID) (bool, error) {
	return s.repo.CompareAndSetStatus(ctx, s.db, id, invoicedomain.InvoiceStatusPending, invoicedomain.InvoiceStatusPaid)
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	ok, err := s.repo.Delete(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return invoicedomain.ErrNotFound
	}
	s.log.Info("invoice deleted", zap.String("invoice_id", id.String()))
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}
