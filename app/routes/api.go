package routes

import (
	"github.com/shashiranjanraj/productd/app/controllers"
	"github.com/shashiranjanraj/productd/pkg/ctx"
	"github.com/shashiranjanraj/productd/pkg/router"
)

// RegisterAPI mounts the welcome route and the product CRUD routes.
func RegisterAPI(r *router.Router, products *controllers.ProductController) {
	r.Get("/", "welcome", ctx.Wrap(controllers.Welcome))

	api := r.Group("/products")
	api.Post("/", "products.store", ctx.Wrap(products.Store))
	api.Get("/", "products.index", ctx.Wrap(products.Index))
	api.Get("/{id}", "products.show", ctx.Wrap(products.Show))
	api.Put("/{id}", "products.update", ctx.Wrap(products.Update))
	api.Delete("/{id}", "products.destroy", ctx.Wrap(products.Destroy))
}
