package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/catalogops/priced-catalog-service/internal/domain"
	"github.com/catalogops/priced-catalog-service/internal/observability"
	"github.com/catalogops/priced-catalog-service/internal/repository"
)

var (
	ErrProductInvalidName        = errors.New("name must be between 3 and 120 characters")
	ErrProductInvalidDescription = errors.New("description must be <= 2000 characters")
	ErrProductInvalidPrice       = errors.New("price must not be negative")
	ErrProductNoUpdates          = errors.New("no updates provided")
)

const descriptionPreviewLimit = 100

// ImageUpload carries an already size-checked image payload from the
// transport layer.
type ImageUpload struct {
	Content io.Reader
	Size    int64
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       *ImageUpload
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Image       *ImageUpload
}

// ProductView is a product enriched with its resolved image URL.
type ProductView struct {
	domain.Product
	ImageURL string `json:"image_url"`
}

// CatalogItem is the public listing shape: truncated description and prices
// in both currencies.
type CatalogItem struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceUSD    string `json:"price_usd"`
	PriceEUR    string `json:"price_eur"`
	ImageURL    string `json:"image_url"`
}

type CatalogService interface {
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uint, input UpdateProductInput) (*domain.Product, error)
	DeleteByID(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*ProductView, error)
	ListProducts(ctx context.Context, req repository.PageRequest) (repository.PageResult[ProductView], error)
	ListCatalog(ctx context.Context, req repository.PageRequest) (repository.PageResult[CatalogItem], float64, error)
	GetCatalogItem(ctx context.Context, id uint) (*CatalogItem, float64, error)
	DisplayRate(ctx context.Context) float64
}

// CatalogServiceImpl orchestrates product mutations across the database,
// the asset store and the notification dispatcher. Each mutation is a
// single all-or-nothing unit of work; the price-change notification is the
// only step that runs after commit.
type CatalogServiceImpl struct {
	db          *gorm.DB
	repo        repository.ProductRepository
	assets      AssetStore
	rates       RateProvider
	dispatcher  PriceChangeDispatcher
	notifyEmail string
	logger      *slog.Logger
}

func NewCatalogService(
	db *gorm.DB,
	repo repository.ProductRepository,
	assets AssetStore,
	rates RateProvider,
	dispatcher PriceChangeDispatcher,
	notifyEmail string,
	logger *slog.Logger,
) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		db:          db,
		repo:        repo,
		assets:      assets,
		rates:       rates,
		dispatcher:  dispatcher,
		notifyEmail: notifyEmail,
		logger:      logger,
	}
}

// Create validates the fields, stores the image if one was supplied and
// inserts the row inside a transaction. A duplicate name is rejected before
// any asset write, so a conflict can never orphan an asset. No notification
// is sent on create.
func (s *CatalogServiceImpl) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "create", outcome, time.Since(start)) }()

	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	if err := validateName(name); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	if input.Price.IsNegative() {
		outcome = "bad_request"
		return nil, ErrProductInvalidPrice
	}

	taken, err := s.repo.NameTaken(name, 0)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	if taken {
		outcome = "conflict"
		return nil, repository.ErrProductNameTaken
	}

	imageName := domain.DefaultImage
	if input.Image != nil {
		stored, err := s.assets.Put(ctx, input.Image.Content, input.Image.Size)
		if err != nil {
			outcome = "storage_error"
			return nil, err
		}
		imageName = stored
	}

	product := &domain.Product{
		Name:        name,
		Description: description,
		Price:       input.Price,
		Image:       imageName,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(product)
	})
	if err != nil {
		// The asset is not referenced by any row yet, so removing it is safe.
		if imageName != domain.DefaultImage {
			if delErr := s.assets.Delete(ctx, imageName); delErr != nil {
				s.logger.ErrorContext(ctx, "failed to clean up asset after aborted create",
					"image", imageName, "error", delErr)
			}
		}
		if errors.Is(err, repository.ErrProductNameTaken) {
			outcome = "conflict"
			return nil, err
		}
		outcome = "error"
		s.logger.ErrorContext(ctx, "failed to add product", "error", err)
		return nil, err
	}
	return product, nil
}

// Update applies field changes inside a transaction. A replacement image is
// stored before the row is touched; the previous asset is deleted only after
// a successful commit and only when it is not the sentinel. If the commit
// fails after the new asset was stored, the fresh asset is left orphaned
// rather than risking deletion of a still-referenced one. A notification is
// dispatched after commit when the stored price actually changed.
func (s *CatalogServiceImpl) Update(ctx context.Context, id uint, input UpdateProductInput) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "update", outcome, time.Since(start)) }()

	current, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}
	oldPrice := current.Price
	oldImage := current.Image

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := validateName(name); err != nil {
			outcome = "bad_request"
			return nil, err
		}
		if name != current.Name {
			taken, err := s.repo.NameTaken(name, id)
			if err != nil {
				outcome = "error"
				return nil, err
			}
			if taken {
				outcome = "conflict"
				return nil, repository.ErrProductNameTaken
			}
		}
		updates["name"] = name
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if err := validateDescription(description); err != nil {
			outcome = "bad_request"
			return nil, err
		}
		updates["description"] = description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			outcome = "bad_request"
			return nil, ErrProductInvalidPrice
		}
		updates["price"] = *input.Price
	}

	// The new asset must be confirmed stored before the row references it
	// and before the old asset may be deleted.
	newImage := ""
	if input.Image != nil {
		stored, err := s.assets.Put(ctx, input.Image.Content, input.Image.Size)
		if err != nil {
			outcome = "storage_error"
			return nil, err
		}
		newImage = stored
		updates["image"] = stored
	}

	if len(updates) == 0 {
		outcome = "bad_request"
		return nil, ErrProductNoUpdates
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(id, updates)
	})
	if err != nil {
		// The new asset stays behind as an orphan: never delete an asset a
		// committed row might still reference.
		if newImage != "" {
			s.logger.ErrorContext(ctx, "update rolled back, newly stored asset orphaned",
				"product_id", id, "image", newImage)
		}
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			outcome = "not_found"
		case errors.Is(err, repository.ErrProductNameTaken):
			outcome = "conflict"
		default:
			outcome = "error"
			s.logger.ErrorContext(ctx, "failed to edit product", "product_id", id, "error", err)
		}
		return nil, err
	}

	if newImage != "" && oldImage != domain.DefaultImage {
		if err := s.assets.Delete(ctx, oldImage); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete replaced asset",
				"product_id", id, "image", oldImage, "error", err)
		}
	}

	// Past commit the mutation has succeeded; the returned row is rebuilt
	// from the applied updates instead of a refetch so that a transient read
	// failure cannot fail a committed mutation or swallow its notification.
	product := *current
	if v, ok := updates["name"]; ok {
		product.Name = v.(string)
	}
	if v, ok := updates["description"]; ok {
		product.Description = v.(string)
	}
	if v, ok := updates["price"]; ok {
		product.Price = v.(decimal.Decimal)
	}
	if v, ok := updates["image"]; ok {
		product.Image = v.(string)
	}

	if !oldPrice.Equal(product.Price) {
		s.dispatcher.Dispatch(PriceChangeEvent{
			ProductID:   product.ID,
			ProductName: product.Name,
			OldPrice:    oldPrice,
			NewPrice:    product.Price,
			Recipient:   s.notifyEmail,
		})
	}
	return &product, nil
}

// DeleteByID retires the product's custom asset and removes the row. Asset
// deletion failures are logged, not fatal: the row is deleted regardless.
func (s *CatalogServiceImpl) DeleteByID(ctx context.Context, id uint) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "delete", outcome, time.Since(start)) }()

	product, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return err
	}

	if product.HasCustomImage() {
		if err := s.assets.Delete(ctx, product.Image); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete product asset",
				"product_id", id, "image", product.Image, "error", err)
		}
	}

	if err := s.repo.DeleteByID(id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
			s.logger.ErrorContext(ctx, "failed to delete product", "product_id", id, "error", err)
		}
		return err
	}
	return nil
}

func (s *CatalogServiceImpl) GetByID(ctx context.Context, id uint) (*ProductView, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "get", outcome, time.Since(start)) }()

	product, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}
	return &ProductView{Product: *product, ImageURL: s.assets.ResolveURL(product.Image)}, nil
}

// ListProducts is the admin listing: newest first, image URLs resolved.
func (s *CatalogServiceImpl) ListProducts(ctx context.Context, req repository.PageRequest) (repository.PageResult[ProductView], error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "list", outcome, time.Since(start)) }()

	page, err := s.repo.ListPaged(req)
	if err != nil {
		outcome = "error"
		return repository.PageResult[ProductView]{}, err
	}

	items := make([]ProductView, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, ProductView{Product: p, ImageURL: s.assets.ResolveURL(p.Image)})
	}
	return repository.PageResult[ProductView]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}, nil
}

// ListCatalog is the public listing: truncated descriptions and prices
// converted to EUR with the current display rate. Returns the rate used.
func (s *CatalogServiceImpl) ListCatalog(ctx context.Context, req repository.PageRequest) (repository.PageResult[CatalogItem], float64, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "catalog_list", outcome, time.Since(start)) }()

	page, err := s.repo.ListPaged(req)
	if err != nil {
		outcome = "error"
		return repository.PageResult[CatalogItem]{}, 0, err
	}

	rate := s.rates.Rate(ctx)
	items := make([]CatalogItem, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, s.toCatalogItem(&p, rate))
	}
	return repository.PageResult[CatalogItem]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}, rate, nil
}

func (s *CatalogServiceImpl) GetCatalogItem(ctx context.Context, id uint) (*CatalogItem, float64, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "catalog_get", outcome, time.Since(start)) }()

	product, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, 0, err
	}
	rate := s.rates.Rate(ctx)
	item := s.toCatalogItem(product, rate)
	item.Description = product.Description
	return &item, rate, nil
}

func (s *CatalogServiceImpl) DisplayRate(ctx context.Context) float64 {
	return s.rates.Rate(ctx)
}

func (s *CatalogServiceImpl) toCatalogItem(p *domain.Product, rate float64) CatalogItem {
	return CatalogItem{
		ID:          p.ID,
		Name:        p.Name,
		Description: truncateDescription(p.Description, descriptionPreviewLimit),
		PriceUSD:    p.Price.StringFixed(2),
		PriceEUR:    p.Price.Mul(decimal.NewFromFloat(rate)).StringFixed(2),
		ImageURL:    s.assets.ResolveURL(p.Image),
	}
}

func validateName(name string) error {
	if len(name) < 3 || len(name) > 120 {
		return ErrProductInvalidName
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > 2000 {
		return ErrProductInvalidDescription
	}
	return nil
}

func truncateDescription(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
