package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/domain/zone"
)

// ============================================
// Users
// ============================================

const userColumns = `id, last_name, first_name, email, password_hash, role, phone, address, active, created_at, updated_at`

func scanUser(row scanner) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.LastName, &u.FirstName, &u.Email, &u.PasswordHash, &u.Role,
		&u.Phone, &u.Address, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Postgres) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, u.ID, u.LastName, u.FirstName, u.Email, u.PasswordHash, u.Role,
		u.Phone, u.Address, u.Active, u.CreatedAt, u.UpdatedAt)
	return wrapErr("create user", err, user.ErrEmailTaken)
}

func (s *Postgres) GetUser(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	return u, wrapErr("get user", err, nil)
}

func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	return u, wrapErr("get user by email", err, nil)
}

func (s *Postgres) ListUsers(ctx context.Context, f user.Filter) ([]*user.User, error) {
	var w where
	if f.Role != "" {
		w.add("role = $%d", f.Role)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY created_at DESC, id`, w.args...)
	if err != nil {
		return nil, wrapErr("list users", err, nil)
	}
	defer closeRows(rows)

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapErr("list users", err, nil)
		}
		users = append(users, u)
	}
	return users, wrapErr("list users", rows.Err(), nil)
}

func (s *Postgres) UpdateUser(ctx context.Context, u *user.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_name = $2, first_name = $3, email = $4, password_hash = $5, role = $6,
			phone = $7, address = $8, active = $9, updated_at = $10
		WHERE id = $1
	`, u.ID, u.LastName, u.FirstName, u.Email, u.PasswordHash, u.Role,
		u.Phone, u.Address, u.Active, u.UpdatedAt)
	if err != nil {
		return wrapErr("update user", err, user.ErrEmailTaken)
	}
	return requireRow("update user", res, user.ErrUserNotFound)
}

func (s *Postgres) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete user", err, nil)
	}
	return requireRow("delete user", res, user.ErrUserNotFound)
}

// ============================================
// Zones
// ============================================

const zoneColumns = `id, name, description, floor, area, created_at, updated_at`

func scanZone(row scanner) (*zone.Zone, error) {
	var z zone.Zone
	if err := row.Scan(&z.ID, &z.Name, &z.Description, &z.Floor, &z.Area, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return nil, err
	}
	return &z, nil
}

func (s *Postgres) CreateZone(ctx context.Context, z *zone.Zone) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO zones (`+zoneColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, z.ID, z.Name, z.Description, z.Floor, z.Area, z.CreatedAt, z.UpdatedAt)
	return wrapErr("create zone", err, nil)
}

func (s *Postgres) GetZone(ctx context.Context, id string) (*zone.Zone, error) {
	z, err := scanZone(s.db.QueryRowContext(ctx, `SELECT `+zoneColumns+` FROM zones WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, zone.ErrZoneNotFound
	}
	return z, wrapErr("get zone", err, nil)
}

func (s *Postgres) ListZones(ctx context.Context) ([]*zone.Zone, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+zoneColumns+` FROM zones ORDER BY floor, name`)
	if err != nil {
		return nil, wrapErr("list zones", err, nil)
	}
	defer closeRows(rows)

	zones := []*zone.Zone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, wrapErr("list zones", err, nil)
		}
		zones = append(zones, z)
	}
	return zones, wrapErr("list zones", rows.Err(), nil)
}

func (s *Postgres) UpdateZone(ctx context.Context, z *zone.Zone) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE zones SET name = $2, description = $3, floor = $4, area = $5, updated_at = $6
		WHERE id = $1
	`, z.ID, z.Name, z.Description, z.Floor, z.Area, z.UpdatedAt)
	if err != nil {
		return wrapErr("update zone", err, nil)
	}
	return requireRow("update zone", res, zone.ErrZoneNotFound)
}

func (s *Postgres) DeleteZone(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		err = wrapErr("delete zone", err, nil)
		if errors.Is(err, apperr.ErrConflict) {
			return zone.ErrZoneInUse
		}
		return err
	}
	return requireRow("delete zone", res, zone.ErrZoneNotFound)
}

func (s *Postgres) CountShopsInZone(ctx context.Context, zoneID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shops WHERE zone_id = $1`, zoneID).Scan(&n)
	return n, wrapErr("count shops", err, nil)
}

// ============================================
// Shops
// ============================================

const shopColumns = `id, number, name, category, area, zone_id, status, merchant_id, description, phone, email, active, created_at, updated_at`

func scanShop(row scanner) (*shop.Shop, error) {
	var sh shop.Shop
	var merchantID sql.NullString
	err := row.Scan(&sh.ID, &sh.Number, &sh.Name, &sh.Category, &sh.Area, &sh.ZoneID, &sh.Status,
		&merchantID, &sh.Description, &sh.Phone, &sh.Email, &sh.Active, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sh.MerchantID = merchantID.String
	return &sh, nil
}

func (s *Postgres) CreateShop(ctx context.Context, sh *shop.Shop) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shops (`+shopColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, sh.ID, sh.Number, sh.Name, sh.Category, sh.Area, sh.ZoneID, sh.Status, nullString(sh.MerchantID),
		sh.Description, sh.Phone, sh.Email, sh.Active, sh.CreatedAt, sh.UpdatedAt)
	return wrapErr("create shop", err, shop.ErrNumberTaken)
}

func (s *Postgres) GetShop(ctx context.Context, id string) (*shop.Shop, error) {
	sh, err := scanShop(s.db.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM shops WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shop.ErrShopNotFound
	}
	return sh, wrapErr("get shop", err, nil)
}

func (s *Postgres) ListShops(ctx context.Context, f shop.Filter) ([]*shop.Shop, error) {
	var w where
	if f.ZoneID != "" {
		w.add("zone_id = $%d", f.ZoneID)
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	if f.Category != "" {
		w.add("category = $%d", f.Category)
	}
	if f.MerchantID != "" {
		w.add("merchant_id = $%d", f.MerchantID)
	}
	if f.Active != nil {
		w.add("active = $%d", *f.Active)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+shopColumns+` FROM shops`+w.String()+` ORDER BY number`, w.args...)
	if err != nil {
		return nil, wrapErr("list shops", err, nil)
	}
	defer closeRows(rows)

	shops := []*shop.Shop{}
	for rows.Next() {
		sh, err := scanShop(rows)
		if err != nil {
			return nil, wrapErr("list shops", err, nil)
		}
		shops = append(shops, sh)
	}
	return shops, wrapErr("list shops", rows.Err(), nil)
}

func (s *Postgres) UpdateShop(ctx context.Context, sh *shop.Shop) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE shops SET number = $2, name = $3, category = $4, area = $5, zone_id = $6, status = $7,
			merchant_id = $8, description = $9, phone = $10, email = $11, active = $12, updated_at = $13
		WHERE id = $1
	`, sh.ID, sh.Number, sh.Name, sh.Category, sh.Area, sh.ZoneID, sh.Status, nullString(sh.MerchantID),
		sh.Description, sh.Phone, sh.Email, sh.Active, sh.UpdatedAt)
	if err != nil {
		return wrapErr("update shop", err, shop.ErrNumberTaken)
	}
	return requireRow("update shop", res, shop.ErrShopNotFound)
}

func (s *Postgres) DeleteShop(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shops WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete shop", err, nil)
	}
	return requireRow("delete shop", res, shop.ErrShopNotFound)
}
