package validate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/productd/pkg/validate"
)

type listingInput struct {
	Name  *string  `json:"name"  validate:"required,min=3,max=10"`
	Price *float64 `json:"price" validate:"required,min=20,max=2000"`
	Code  *string  `json:"code"  validate:"required,regex=\\d{3}-\\d{4}"`
	Stars *float64 `json:"stars" validate:"required"`
	Email *string  `json:"email" validate:"nullable,unique=email"`
}

func ptr[T any](v T) *T { return &v }

func validListing() listingInput {
	return listingInput{
		Name:  ptr("lamp"),
		Price: ptr(50.0),
		Code:  ptr("123-4567"),
		Stars: ptr(0.0),
	}
}

func TestFirstAcceptsValidInput(t *testing.T) {
	verr, err := validate.New().First(context.Background(), validListing())
	require.NoError(t, err)
	assert.Nil(t, verr)
}

func TestRequiredTreatsZeroPointerAsPresent(t *testing.T) {
	in := validListing()
	in.Stars = ptr(0.0)
	verr, err := validate.New().First(context.Background(), &in)
	require.NoError(t, err)
	assert.Nil(t, verr)

	in.Stars = nil
	verr, err = validate.New().First(context.Background(), &in)
	require.NoError(t, err)
	require.NotNil(t, verr)
	assert.Equal(t, "stars", verr.Field)
	assert.Equal(t, validate.KindRequired, verr.Kind)
}

func TestFirstViolationWinsInFieldOrder(t *testing.T) {
	verr, err := validate.New().First(context.Background(), listingInput{})
	require.NoError(t, err)
	require.NotNil(t, verr)
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, "required", verr.Rule)
}

func TestKinds(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*listingInput)
		field string
		kind  validate.Kind
	}{
		{"empty string is absent", func(in *listingInput) { in.Name = ptr("") }, "name", validate.KindRequired},
		{"spaces are present but short", func(in *listingInput) { in.Name = ptr("  ") }, "name", validate.KindLength},
		{"spaces fail the format", func(in *listingInput) { in.Code = ptr("   ") }, "code", validate.KindFormat},
		{"short string", func(in *listingInput) { in.Name = ptr("ab") }, "name", validate.KindLength},
		{"long string", func(in *listingInput) { in.Name = ptr("abcdefghijk") }, "name", validate.KindLength},
		{"below range", func(in *listingInput) { in.Price = ptr(19.99) }, "price", validate.KindRange},
		{"above range", func(in *listingInput) { in.Price = ptr(2000.01) }, "price", validate.KindRange},
		{"regex mismatch", func(in *listingInput) { in.Code = ptr("1234567") }, "code", validate.KindFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validListing()
			tc.mut(&in)
			verr, err := validate.New().First(context.Background(), in)
			require.NoError(t, err)
			require.NotNil(t, verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.kind, verr.Kind)
		})
	}
}

func TestBoundsAreInclusive(t *testing.T) {
	for _, p := range []float64{20, 2000} {
		in := validListing()
		in.Price = ptr(p)
		verr, err := validate.New().First(context.Background(), in)
		require.NoError(t, err)
		assert.Nil(t, verr, "price %v", p)
	}
}

func TestRegexIsUnanchored(t *testing.T) {
	in := validListing()
	in.Code = ptr("call me at x123-4567y")
	verr, err := validate.New().First(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, verr)
}

func TestMessagesOverride(t *testing.T) {
	v := validate.New(validate.WithMessages(validate.Messages{
		"code.regex": "{value} is not a valid code",
	}))
	in := validListing()
	in.Code = ptr("xyz")

	verr, err := v.First(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, verr)
	assert.Equal(t, "xyz is not a valid code", verr.Message)
	assert.Equal(t, "xyz is not a valid code", verr.Error())
}

func TestUniqueUsesLookup(t *testing.T) {
	var gotKey string
	var gotValue any
	v := validate.New(validate.WithUnique(func(_ context.Context, key string, value any) (bool, error) {
		gotKey, gotValue = key, value
		return value == "taken@example.com", nil
	}))

	in := validListing()
	in.Email = ptr("taken@example.com")
	verr, err := v.First(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, verr)
	assert.Equal(t, validate.KindUniqueness, verr.Kind)
	assert.Equal(t, "email", gotKey)
	assert.Equal(t, "taken@example.com", gotValue)

	in.Email = ptr("free@example.com")
	verr, err = v.First(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, verr)
}

func TestUniqueSkippedWhenAbsent(t *testing.T) {
	called := false
	v := validate.New(validate.WithUnique(func(context.Context, string, any) (bool, error) {
		called = true
		return true, nil
	}))
	verr, err := v.First(context.Background(), validListing())
	require.NoError(t, err)
	assert.Nil(t, verr)
	assert.False(t, called)
}

func TestUniqueLookupFailure(t *testing.T) {
	boom := errors.New("store down")
	v := validate.New(validate.WithUnique(func(context.Context, string, any) (bool, error) {
		return false, boom
	}))
	in := validListing()
	in.Email = ptr("a@example.com")

	verr, err := v.First(context.Background(), in)
	assert.Nil(t, verr)
	assert.ErrorIs(t, err, boom)
}

func TestViolationUsesMessageTable(t *testing.T) {
	v := validate.New(validate.WithMessages(validate.Messages{
		"email.unique": "email {value} is already in use",
	}))
	verr := v.Violation("email", "unique", validate.KindUniqueness, "a@example.com")
	assert.Equal(t, "email a@example.com is already in use", verr.Message)
	assert.Equal(t, validate.KindUniqueness, verr.Kind)

	fallback := v.Violation("sku", "unique", validate.KindUniqueness, "X1")
	assert.Equal(t, "The sku has already been taken.", fallback.Message)
}
