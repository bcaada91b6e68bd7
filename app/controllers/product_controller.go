package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/shashiranjanraj/productd/app/models"
	"github.com/shashiranjanraj/productd/app/repositories"
	"github.com/shashiranjanraj/productd/app/services"
	"github.com/shashiranjanraj/productd/pkg/ctx"
	"github.com/shashiranjanraj/productd/pkg/validate"
)

// ProductService is what the controller needs from the service layer.
type ProductService interface {
	Create(ctx context.Context, in models.ProductInput) (*models.Product, error)
	List(ctx context.Context, price, rating string) (services.ListResult, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) (*models.Product, error)
}

type ProductController struct {
	service ProductService
}

func NewProductController(service ProductService) *ProductController {
	return &ProductController{service: service}
}

// Welcome handles GET /.
func Welcome(c *ctx.Context) {
	c.String(http.StatusOK, "Welcome to the homepage")
}

// Store handles POST /products.
func (pc *ProductController) Store(c *ctx.Context) {
	var in models.ProductInput
	if !c.Bind(&in) {
		return
	}

	p, err := pc.service.Create(c.Context(), in)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			status := http.StatusBadRequest
			if verr.Kind == validate.KindUniqueness {
				status = http.StatusConflict
			}
			c.Error(status, verr.Message)
			return
		}
		pc.fail(c, err)
		return
	}

	c.Accepted("product is created", p)
}

// Index handles GET /products.
func (pc *ProductController) Index(c *ctx.Context) {
	res, err := pc.service.List(c.Context(), c.Query("price"), c.Query("rating"))
	if err != nil {
		pc.fail(c, err)
		return
	}
	if !res.Found() {
		c.NotFound("Products not found")
		return
	}
	c.OK("return all product", res.Data())
}

// Show handles GET /products/{id}.
func (pc *ProductController) Show(c *ctx.Context) {
	p, err := pc.service.Get(c.Context(), c.Param("id"))
	if errors.Is(err, repositories.ErrProductNotFound) {
		c.NotFound("Product not found")
		return
	}
	if err != nil {
		pc.fail(c, err)
		return
	}
	c.OK("return a single product", p)
}

// Update handles PUT /products/{id}.
func (pc *ProductController) Update(c *ctx.Context) {
	var upd models.ProductUpdate
	if !c.Bind(&upd) {
		return
	}

	p, err := pc.service.Update(c.Context(), c.Param("id"), upd)
	if errors.Is(err, repositories.ErrProductNotFound) {
		c.NotFound("product was not updated with this id")
		return
	}
	if err != nil {
		pc.fail(c, err)
		return
	}
	c.OK("updated single product", p)
}

// Destroy handles DELETE /products/{id}.
func (pc *ProductController) Destroy(c *ctx.Context) {
	p, err := pc.service.Delete(c.Context(), c.Param("id"))
	if errors.Is(err, repositories.ErrProductNotFound) {
		c.NotFound("Product was not deleted with id")
		return
	}
	if err != nil {
		pc.fail(c, err)
		return
	}
	c.OK("Deleted single product", p)
}

// fail answers 500 with the error's own message.
func (pc *ProductController) fail(c *ctx.Context, err error) {
	c.Logger().Error("product request failed", "path", c.Path(), "error", err)
	c.InternalError(err)
}
