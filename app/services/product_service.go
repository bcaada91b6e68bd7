package services

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/productd/app/models"
	"github.com/shashiranjanraj/productd/app/repositories"
	"github.com/shashiranjanraj/productd/pkg/bind"
	"github.com/shashiranjanraj/productd/pkg/logger"
	"github.com/shashiranjanraj/productd/pkg/metrics"
	"github.com/shashiranjanraj/productd/pkg/validate"
)

// ListResult is either the full product list or, when both filters were
// given, the number of matching products.
type ListResult struct {
	Products []models.Product
	Count    int64
	Counted  bool
}

// Found reports whether the result is worth returning. An empty list still
// counts as found; a zero count does not.
func (r ListResult) Found() bool {
	if r.Counted {
		return r.Count != 0
	}
	return r.Products != nil
}

// Data is the value placed in the response envelope.
func (r ListResult) Data() any {
	if r.Counted {
		return r.Count
	}
	return r.Products
}

type ProductService struct {
	repo      repositories.ProductRepository
	validator *validate.Validator
	now       func() time.Time
}

func NewProductService(repo repositories.ProductRepository) *ProductService {
	s := &ProductService{repo: repo, now: time.Now}
	s.validator = validate.New(
		validate.WithMessages(models.ProductMessages),
		validate.WithUnique(s.taken),
	)
	return s
}

func (s *ProductService) taken(ctx context.Context, key string, value any) (bool, error) {
	if key != "email" {
		return false, nil
	}
	email, _ := value.(string)
	return s.repo.ExistsByEmail(ctx, email)
}

// Create normalizes and validates in, then stores it. Rule violations are
// returned as *validate.Error.
func (s *ProductService) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	in.Normalize()

	verr, err := s.validator.First(ctx, in)
	if err != nil {
		return nil, err
	}
	if verr != nil {
		metrics.RecordValidationFailure(verr.Field, string(verr.Kind))
		return nil, verr
	}

	p := in.Product(s.now().UTC())
	if err := s.repo.Create(ctx, &p); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// lost the race against a concurrent create with the same email
			metrics.RecordValidationFailure("email", string(validate.KindUniqueness))
			return nil, s.validator.Violation("email", "unique", validate.KindUniqueness, p.Email)
		}
		return nil, err
	}

	logger.WithCtx(ctx).Info("product created", "product_id", p.ID.Hex(), "title", p.Title)
	return &p, nil
}

// List returns every product by price descending, or, when price and
// rating are both non-empty, the count of products with price > price OR
// rating > rating.
func (s *ProductService) List(ctx context.Context, price, rating string) (ListResult, error) {
	if price == "" || rating == "" {
		products, err := s.repo.FindAll(ctx)
		if err != nil {
			return ListResult{}, err
		}
		return ListResult{Products: products}, nil
	}

	p, err := bind.Number("price", price)
	if err != nil {
		return ListResult{}, err
	}
	r, err := bind.Number("rating", rating)
	if err != nil {
		return ListResult{}, err
	}

	n, err := s.repo.CountAbove(ctx, p, r)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Count: n, Counted: true}, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// Update applies upd without validation. Only title, description, price and
// rating can change.
func (s *ProductService) Update(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	p, err := s.repo.UpdateByID(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("product updated", "product_id", id)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("product deleted", "product_id", id)
	return p, nil
}
