package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// maxPageSize caps the limit a caller may request
const maxPageSize = 50

// CatalogService serves products and categories
type CatalogService struct {
	repo     CatalogRepository
	pageSize int
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo CatalogRepository, pageSize int) *CatalogService {
	if pageSize <= 0 {
		pageSize = 6
	}
	return &CatalogService{
		repo:     repo,
		pageSize: pageSize,
		logger:   util.GetLogger(),
	}
}

// ProductQuery is the public listing query
type ProductQuery struct {
	Category  string `form:"category"`
	Condition string `form:"condition"`
	MinPrice  int64  `form:"min_price" binding:"omitempty,min=0"`
	MaxPrice  int64  `form:"max_price" binding:"omitempty,min=0"`
	Search    string `form:"search"`
	Sort      string `form:"sort" binding:"omitempty,oneof=newest price-low price-high"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
}

// ProductPage is one page of a listing
type ProductPage struct {
	Products   []models.Product `json:"products"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
	Page       int              `json:"page"`
}

// ProductInput creates a product
type ProductInput struct {
	Title         string `json:"title" binding:"required"`
	Price         int64  `json:"price" binding:"required,gt=0"`
	OriginalPrice *int64 `json:"original_price,omitempty" binding:"omitempty,gt=0"`
	Image         string `json:"image"`
	Condition     string `json:"condition"`
	Category      string `json:"category"`
}

// ProductPatch updates only the fields that are set
type ProductPatch struct {
	Title         *string `json:"title,omitempty"`
	Price         *int64  `json:"price,omitempty" binding:"omitempty,gt=0"`
	OriginalPrice *int64  `json:"original_price,omitempty" binding:"omitempty,gt=0"`
	Image         *string `json:"image,omitempty"`
	Condition     *string `json:"condition,omitempty"`
	Category      *string `json:"category,omitempty"`
}

// CategoryInput creates a category
type CategoryInput struct {
	Name string `json:"name" binding:"required"`
}

func (s *CatalogService) filter(q ProductQuery) (models.ProductFilter, error) {
	f := models.ProductFilter{
		Category:  strings.TrimSpace(q.Category),
		Condition: strings.TrimSpace(q.Condition),
		MinPrice:  q.MinPrice,
		MaxPrice:  q.MaxPrice,
		Search:    strings.TrimSpace(q.Search),
		Sort:      q.Sort,
		Page:      q.Page,
		Limit:     q.Limit,
	}
	if strings.EqualFold(f.Category, "all") {
		f.Category = ""
	}
	if strings.EqualFold(f.Condition, "all") {
		f.Condition = ""
	}
	if f.MinPrice < 0 || f.MaxPrice < 0 {
		return f, validationf("price bounds must not be negative")
	}
	if f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		return f, validationf("min_price must not exceed max_price")
	}
	switch f.Sort {
	case "", models.SortNewest, models.SortPriceLow, models.SortPriceHigh:
	default:
		return f, validationf("unknown sort %q", f.Sort)
	}
	if f.Sort == "" {
		f.Sort = models.SortNewest
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = s.pageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	return f, nil
}

// ListProducts returns one page of products matching q
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	f, err := s.filter(q)
	if err != nil {
		return nil, err
	}

	products, total, err := s.repo.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	return &ProductPage{
		Products:   products,
		Total:      total,
		TotalPages: (total + f.Limit - 1) / f.Limit,
		Page:       f.Page,
	}, nil
}

// GetProduct returns one product
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// CreateProduct adds a product to the catalog
func (s *CatalogService) CreateProduct(ctx context.Context, in *ProductInput) (*models.Product, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, validationf("title is required")
	}
	if in.Price <= 0 {
		return nil, validationf("price must be positive")
	}

	p := &models.Product{
		Title:         strings.TrimSpace(in.Title),
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Image:         in.Image,
		Condition:     strings.TrimSpace(in.Condition),
		Category:      strings.TrimSpace(in.Category),
	}
	if p.Condition == "" {
		p.Condition = models.DefaultCondition
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.logger.Info("Product created", zap.Int64("product_id", p.ID))
	return p, nil
}

// UpdateProduct applies patch to product id
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, patch *ProductPatch) (*models.Product, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, validationf("title must not be empty")
		}
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Price != nil {
		if *patch.Price <= 0 {
			return nil, validationf("price must be positive")
		}
		p.Price = *patch.Price
	}
	if patch.OriginalPrice != nil {
		p.OriginalPrice = patch.OriginalPrice
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Condition != nil {
		p.Condition = strings.TrimSpace(*patch.Condition)
		if p.Condition == "" {
			p.Condition = models.DefaultCondition
		}
	}
	if patch.Category != nil {
		p.Category = strings.TrimSpace(*patch.Category)
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// DeleteProduct removes a product. Carts and wishlists still referencing it
// simply stop showing it.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return translate(err)
	}
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

// ListCategories returns every category by name
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// CreateCategory adds a category; names are unique
func (s *CatalogService) CreateCategory(ctx context.Context, in *CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	c := &models.Category{Name: name}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// DeleteCategory removes a category. Products keep their category text.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return translate(s.repo.DeleteCategory(ctx, id))
}
