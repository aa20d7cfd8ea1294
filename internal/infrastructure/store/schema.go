package store

import (
	"context"
	"log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		last_name     TEXT NOT NULL,
		first_name    TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		phone         TEXT NOT NULL DEFAULT '',
		address       TEXT NOT NULL DEFAULT '',
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS zones (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		floor       INTEGER NOT NULL DEFAULT 0,
		area        DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS shops (
		id          TEXT PRIMARY KEY,
		number      TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		category    TEXT NOT NULL,
		area        DOUBLE PRECISION NOT NULL,
		zone_id     TEXT NOT NULL REFERENCES zones(id),
		status      TEXT NOT NULL,
		merchant_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		description TEXT NOT NULL DEFAULT '',
		phone       TEXT NOT NULL DEFAULT '',
		email       TEXT NOT NULL DEFAULT '',
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS leases (
		id          TEXT PRIMARY KEY,
		shop_id     TEXT NOT NULL REFERENCES shops(id),
		merchant_id TEXT NOT NULL REFERENCES users(id),
		amount      INTEGER NOT NULL CHECK (amount > 0),
		periodicity TEXT NOT NULL,
		start_date  TIMESTAMPTZ NOT NULL,
		end_date    TIMESTAMPTZ,
		status      TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id          TEXT PRIMARY KEY,
		lease_id    TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
		merchant_id TEXT NOT NULL,
		amount      INTEGER NOT NULL,
		month       INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
		year        INTEGER NOT NULL,
		paid_at     TIMESTAMPTZ NOT NULL,
		method      TEXT NOT NULL,
		status      TEXT NOT NULL,
		reference   TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL,
		UNIQUE (lease_id, month, year)
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id         TEXT PRIMARY KEY,
		last_name  TEXT NOT NULL,
		first_name TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		phone      TEXT NOT NULL DEFAULT '',
		position   TEXT NOT NULL,
		salary     INTEGER NOT NULL CHECK (salary >= 0),
		hired_at   TIMESTAMPTZ NOT NULL,
		active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS salary_payments (
		id          TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		amount      INTEGER NOT NULL,
		month       INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
		year        INTEGER NOT NULL,
		paid_at     TIMESTAMPTZ NOT NULL,
		method      TEXT NOT NULL,
		status      TEXT NOT NULL,
		note        TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		UNIQUE (employee_id, month, year)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price       INTEGER NOT NULL CHECK (price >= 0),
		stock       INTEGER NOT NULL CHECK (stock >= 0),
		shop_id     TEXT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
		category    TEXT NOT NULL,
		images      JSONB NOT NULL DEFAULT '[]',
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_shop ON products (shop_id)`,
	`CREATE TABLE IF NOT EXISTS carts (
		client_id  TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		id         TEXT NOT NULL,
		items      JSONB NOT NULL DEFAULT '[]',
		total      INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		number       TEXT NOT NULL UNIQUE,
		client_id    TEXT NOT NULL REFERENCES users(id),
		shop_id      TEXT NOT NULL REFERENCES shops(id),
		items        JSONB NOT NULL,
		total        INTEGER NOT NULL CHECK (total >= 0),
		status       TEXT NOT NULL,
		payment_mode TEXT NOT NULL,
		paid         BOOLEAN NOT NULL DEFAULT FALSE,
		notes        TEXT NOT NULL DEFAULT '',
		delivered_at TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_client ON orders (client_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_shop ON orders (shop_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS shop_sales (
		shop_id      TEXT NOT NULL,
		day          DATE NOT NULL,
		orders       INTEGER NOT NULL DEFAULT 0,
		revenue      INTEGER NOT NULL DEFAULT 0,
		paid_revenue INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (shop_id, day)
	)`,
	`CREATE TABLE IF NOT EXISTS processed_events (
		event_id     TEXT PRIMARY KEY,
		processed_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates the tables that do not exist yet.
func (s *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return wrapErr("migrate", err, nil)
		}
	}
	log.Printf("[Postgres] Schema ready (%d statements)", len(schema))
	return nil
}
