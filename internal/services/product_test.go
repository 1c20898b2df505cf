package services

import (
	"context"
	"errors"
	"testing"

	"github.com/techmarket/marketplace-api/internal/models"
	"github.com/techmarket/marketplace-api/internal/repository"
)

func TestCreateProductValidatesOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seller := env.seedUser(t, models.UserTypeSeller)
	category := env.seedCategory(t)

	p, err := env.productService.CreateProduct(ctx, models.ProductRequest{
		SellerID:   seller,
		CategoryID: category,
		Name:       "Keyboard",
		Price:      79.99,
		Stock:      12,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if !p.IsActive {
		t.Error("new product not active")
	}

	var ve *ValidationError
	cases := []struct {
		name string
		req  models.ProductRequest
	}{
		{"unknown seller", models.ProductRequest{SellerID: 9999, CategoryID: category, Name: "X", Price: 1}},
		{"unknown category", models.ProductRequest{SellerID: seller, CategoryID: 9999, Name: "X", Price: 1}},
		{"missing name", models.ProductRequest{SellerID: seller, CategoryID: category, Price: 1}},
		{"negative price", models.ProductRequest{SellerID: seller, CategoryID: category, Name: "X", Price: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.productService.CreateProduct(ctx, tc.req); !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestDeleteProductIsSoft(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seller := env.seedUser(t, models.UserTypeSeller)
	productID := env.seedProduct(t, seller, 50, 10)

	if err := env.productService.DeleteProduct(ctx, productID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	// gone from the public listing
	active, err := env.productService.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active products = %d, want 0", len(active))
	}

	// still reachable by id so order history keeps a valid reference
	p, err := env.productService.GetProduct(ctx, productID)
	if err != nil {
		t.Fatalf("GetProduct after delete: %v", err)
	}
	if p.IsActive {
		t.Error("deleted product still active")
	}

	if err := env.productService.DeleteProduct(ctx, 9999); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearchProductsMatchesNameAndDescription(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seller := env.seedUser(t, models.UserTypeSeller)

	create := func(name, description string) {
		t.Helper()
		p := &models.Product{SellerID: seller, CategoryID: 1, Name: name, Description: description, Price: 10, IsActive: true}
		if err := env.products.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	create("Gaming Laptop", "16 inch display")
	create("Desk Lamp", "fits next to a laptop")
	create("Mouse", "wireless")

	got, err := env.productService.SearchProducts(ctx, "LAPTOP")
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("matches = %d, want 2 (name and description, case-insensitive)", len(got))
	}
}

func TestListBySellerIncludesInactive(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seller := env.seedUser(t, models.UserTypeSeller)
	other := env.seedUser(t, models.UserTypeSeller)
	kept := env.seedProduct(t, seller, 10, 1)
	retired := env.seedProduct(t, seller, 20, 1)
	env.seedProduct(t, other, 30, 1)

	if err := env.productService.DeleteProduct(ctx, retired); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	got, err := env.productService.ListBySeller(ctx, seller)
	if err != nil {
		t.Fatalf("ListBySeller: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("seller products = %d, want 2 including the retired one", len(got))
	}
	if got[0].ID != kept {
		t.Errorf("first product = %d, want %d", got[0].ID, kept)
	}
}
