package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/productd/app/models"
	"github.com/shashiranjanraj/productd/pkg/bind"
	"github.com/shashiranjanraj/productd/pkg/metrics"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateKey    = errors.New("duplicate key")
)

// StoreError wraps a driver failure. Its message is the driver's message.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

// CastError is the request-binding cast failure; a malformed id is reported
// the same way as a non-numeric form field.
type CastError = bind.CastError

// ProductRepository is the document store contract the service consumes.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	FindAll(ctx context.Context) ([]models.Product, error)
	CountAbove(ctx context.Context, price, rating float64) (int64, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	UpdateByID(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error)
	DeleteByID(ctx context.Context, id string) (*models.Product, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// MongoProductRepository stores products in a single collection.
type MongoProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(col *mongo.Collection) *MongoProductRepository {
	return &MongoProductRepository{col: col}
}

// EnsureIndexes creates the sparse unique index on email, so products
// without an email never collide with each other.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true).SetName("email_unique"),
	})
	if err != nil {
		return &StoreError{Op: "ensure_indexes", Err: err}
	}
	return nil
}

func (r *MongoProductRepository) Create(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveDBQuery("insert", time.Now())

	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return &StoreError{Op: "insert", Err: err}
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

// FindAll returns every product, most expensive first.
func (r *MongoProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	defer metrics.ObserveDBQuery("find", time.Now())

	cur, err := r.col.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "price", Value: -1}}))
	if err != nil {
		return nil, &StoreError{Op: "find", Err: err}
	}
	products := make([]models.Product, 0)
	if err := cur.All(ctx, &products); err != nil {
		return nil, &StoreError{Op: "find", Err: err}
	}
	return products, nil
}

// CountAbove counts products priced above price OR rated above rating.
func (r *MongoProductRepository) CountAbove(ctx context.Context, price, rating float64) (int64, error) {
	defer metrics.ObserveDBQuery("count", time.Now())

	filter := bson.M{"$or": bson.A{
		bson.M{"price": bson.M{"$gt": price}},
		bson.M{"rating": bson.M{"$gt": rating}},
	}}
	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, &StoreError{Op: "count", Err: err}
	}
	return n, nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveDBQuery("find_one", time.Now())

	var p models.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		return nil, notFoundOr("find_one", err)
	}
	return &p, nil
}

// UpdateByID $sets the provided fields and returns the updated document.
// No validation happens here; title is still normalized.
func (r *MongoProductRepository) UpdateByID(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	if upd.IsEmpty() {
		return r.FindByID(ctx, id)
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveDBQuery("update", time.Now())

	set := bson.M{}
	if upd.Title != nil {
		set["title"] = models.NormalizeTitle(*upd.Title)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Rating != nil {
		set["rating"] = *upd.Rating
	}

	var p models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return nil, notFoundOr("update", err)
	}
	return &p, nil
}

// DeleteByID removes the product and returns what was removed.
func (r *MongoProductRepository) DeleteByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveDBQuery("delete", time.Now())

	var p models.Product
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		return nil, notFoundOr("delete", err)
	}
	return &p, nil
}

func (r *MongoProductRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	defer metrics.ObserveDBQuery("count", time.Now())

	n, err := r.col.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, &StoreError{Op: "exists_by_email", Err: err}
	}
	return n > 0, nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &CastError{Kind: "ObjectId", Value: id, Path: "_id"}
	}
	return oid, nil
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrProductNotFound
	}
	return &StoreError{Op: op, Err: err}
}
