// Package store persists the mall on PostgreSQL or in memory.
package store

import (
	"github.com/example/mall-backoffice/internal/domain/cart"
	"github.com/example/mall-backoffice/internal/domain/employee"
	"github.com/example/mall-backoffice/internal/domain/lease"
	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/domain/payment"
	"github.com/example/mall-backoffice/internal/domain/product"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/domain/zone"
	"github.com/example/mall-backoffice/internal/projection"
)

// Store is every repository the services need.
type Store interface {
	user.Repository
	zone.Repository
	shop.Repository
	lease.Repository
	payment.Repository
	employee.Repository
	product.Repository
	cart.Repository
	order.Store
	projection.Store
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Postgres)(nil)
)
