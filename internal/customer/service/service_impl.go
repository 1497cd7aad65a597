package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autocharge/internal/customer/domain"
	"github.com/smallbiznis/autocharge/internal/money"
	"github.com/smallbiznis/autocharge/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	currency, err := money.ParseCurrency(req.Currency)
	if err != nil {
		return domain.Customer{}, domain.ErrInvalidCurrency
	}

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:         s.genID.Generate(),
		Currency:   currency,
		PaymentRef: strings.TrimSpace(req.PaymentRef),
		Metadata:   datatypes.JSONMap(req.Metadata),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if customer.Metadata == nil {
		customer.Metadata = datatypes.JSONMap{}
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}

	return customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	filter := domain.ListCustomerFilter{
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
	}

	page := pagination.Pagination{PageToken: req.PageToken, PageSize: int(req.PageSize)}
	rows, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	items, info := pagination.Page(rows, page.Limit(), func(customer *domain.Customer) int64 {
		return customer.ID.Int64()
	})
	return domain.ListCustomerResponse{Customers: items, PageInfo: info}, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}
	return s.Fetch(ctx, id)
}

func (s *Service) Fetch(ctx context.Context, id snowflake.ID) (domain.Customer, error) {
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) UpdateCurrency(ctx context.Context, id snowflake.ID, currency money.Currency) error {
	if !currency.Valid() {
		return domain.ErrInvalidCurrency
	}
	ok, err := s.repo.UpdateCurrency(ctx, s.db, id, currency.String())
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	s.log.Info("customer currency updated",
		zap.String("customer_id", id.String()),
		zap.String("currency", currency.String()),
	)
	return nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
