// Package seed holds the catalog and accounts a new storefront starts with.
package seed

import (
	_ "embed"
	"encoding/json"
	"log"

	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/domain/user"
)

var (
	//go:embed products.json
	productsJSON []byte

	//go:embed users.json
	usersJSON []byte
)

// Products returns a fresh copy of the initial catalog.
func Products() []product.Product {
	var products []product.Product
	if err := json.Unmarshal(productsJSON, &products); err != nil {
		log.Printf("[Seed] Invalid products.json: %v", err)
		return nil
	}
	return products
}

// Users returns the initial accounts: one admin.
func Users() []user.User {
	var users []user.User
	if err := json.Unmarshal(usersJSON, &users); err != nil {
		log.Printf("[Seed] Invalid users.json: %v", err)
		return nil
	}
	return users
}
