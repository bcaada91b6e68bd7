package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/productd/pkg/validate"
)

// Product is the stored catalogue document.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"   json:"id"`
	Title       string             `bson:"title"           json:"title"`
	Price       float64            `bson:"price"           json:"price"`
	Phone       string             `bson:"phone"           json:"phone"`
	Rating      float64            `bson:"rating"          json:"rating"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Description string             `bson:"description"     json:"description"`
	CreatedAt   time.Time          `bson:"createdAt"       json:"createdAt"`
}

// ProductInput is the create payload. Pointers distinguish "absent" from
// zero values; the validate tags are the product rule table.
type ProductInput struct {
	Title       *string  `json:"title"       validate:"required,min=3,max=255"`
	Price       *float64 `json:"price"       validate:"required,min=20,max=2000"`
	Phone       *string  `json:"phone"       validate:"required,regex=\\d{3}-\\d{3}-\\d{4}"`
	Rating      *float64 `json:"rating"      validate:"required"`
	Email       *string  `json:"email"       validate:"nullable,unique=email"`
	Description *string  `json:"description" validate:"required"`
}

// ProductMessages are the user-facing texts for each rule violation.
var ProductMessages = validate.Messages{
	"title.required":       "Product title is required",
	"title.min":            "minimum length of the product title should be 3",
	"title.max":            "maximum length of the product title should be 255",
	"price.required":       "Product price is required",
	"price.min":            "minimum price of the product should be 20",
	"price.max":            "maximum price of the product should be 2000",
	"phone.required":       "Phone number is required",
	"phone.regex":          "{value} is not a valid phone number",
	"rating.required":      "Product rating is required",
	"email.unique":         "email {value} is already in use",
	"description.required": "Product description is required",
}

// ProductUpdate is the partial update payload. phone, email and createdAt
// are deliberately absent: they cannot change through an update.
type ProductUpdate struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Rating      *float64 `json:"rating"`
}

// NormalizeTitle trims and lowercases a title the way it is stored.
func NormalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalize applies the stored-form setters to the input in place.
func (in *ProductInput) Normalize() {
	if in.Title != nil {
		t := NormalizeTitle(*in.Title)
		in.Title = &t
	}
	if in.Email != nil {
		e := strings.TrimSpace(*in.Email)
		in.Email = &e
	}
}

// Product builds the document to insert. Call after validation.
func (in ProductInput) Product(now time.Time) Product {
	p := Product{CreatedAt: now}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Phone != nil {
		p.Phone = *in.Phone
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	if in.Email != nil {
		p.Email = *in.Email
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	return p
}

// IsEmpty reports whether the update carries no fields.
func (u ProductUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil && u.Rating == nil
}
