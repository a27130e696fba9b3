package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied on startup. Every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS addresses (
    id          BIGSERIAL PRIMARY KEY,
    user_id     BIGINT      NOT NULL,
    type        TEXT        NOT NULL DEFAULT 'home' CHECK (type IN ('home', 'office', 'other')),
    name        TEXT        NOT NULL,
    phone_no    TEXT        NOT NULL,
    pincode     INTEGER     NOT NULL CHECK (pincode BETWEEN 100000 AND 999999),
    city        TEXT        NOT NULL,
    state       TEXT        NOT NULL,
    street      TEXT        NOT NULL,
    flat_no     TEXT        NOT NULL,
    landmark    TEXT,
    is_default  BOOLEAN     NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_addresses_user_id ON addresses(user_id);

CREATE TABLE IF NOT EXISTS books (
    id                  BIGSERIAL PRIMARY KEY,
    name                TEXT          NOT NULL,
    price               NUMERIC(12,2) NOT NULL CHECK (price >= 0),
    discount_percentage NUMERIC(5,2)  NOT NULL DEFAULT 0 CHECK (discount_percentage BETWEEN 0 AND 100),
    description         TEXT          NOT NULL DEFAULT '',
    additional_details  TEXT          NOT NULL DEFAULT '',
    availability        TEXT          NOT NULL DEFAULT 'in stock',
    created_at          TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ   NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS materials (
    id                  BIGSERIAL PRIMARY KEY,
    name                TEXT          NOT NULL,
    type                TEXT          NOT NULL,
    supplier_name       TEXT          NOT NULL,
    title               TEXT          NOT NULL DEFAULT '',
    price               NUMERIC(12,2) NOT NULL CHECK (price >= 0),
    discount_percentage NUMERIC(5,2)  NOT NULL DEFAULT 0 CHECK (discount_percentage BETWEEN 0 AND 100),
    description         TEXT          NOT NULL DEFAULT '',
    availability        TEXT          NOT NULL DEFAULT 'in stock',
    created_at          TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ   NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cart_lines (
    id          BIGSERIAL PRIMARY KEY,
    user_id     BIGINT      NOT NULL,
    book_id     BIGINT      REFERENCES books(id) ON DELETE CASCADE,
    material_id BIGINT      REFERENCES materials(id) ON DELETE CASCADE,
    quantity    INTEGER     NOT NULL CHECK (quantity > 0),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (num_nonnulls(book_id, material_id) = 1)
);
CREATE UNIQUE INDEX IF NOT EXISTS uq_cart_lines_user_book ON cart_lines(user_id, book_id) WHERE book_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS uq_cart_lines_user_material ON cart_lines(user_id, material_id) WHERE material_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS orders (
    id          CHAR(8)       PRIMARY KEY,
    user_id     BIGINT        NOT NULL,
    address_id  BIGINT        NOT NULL REFERENCES addresses(id),
    total_price NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (total_price >= 0),
    status      TEXT          NOT NULL DEFAULT 'pending'
                CHECK (status IN ('pending', 'packed', 'shipped', 'delivered', 'cancelled')),
    created_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS order_items (
    id          BIGSERIAL PRIMARY KEY,
    order_id    CHAR(8)       NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    book_id     BIGINT        REFERENCES books(id),
    material_id BIGINT        REFERENCES materials(id),
    quantity    INTEGER       NOT NULL CHECK (quantity > 0),
    price       NUMERIC(12,2) NOT NULL CHECK (price >= 0),
    created_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
    CHECK (num_nonnulls(book_id, material_id) = 1)
);
CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

CREATE TABLE IF NOT EXISTS payments (
    id           BIGSERIAL PRIMARY KEY,
    order_id     CHAR(8)       NOT NULL UNIQUE REFERENCES orders(id) ON DELETE CASCADE,
    amount       NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
    status       TEXT          NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'failed')),
    type         TEXT          NOT NULL CHECK (type IN ('cash on delivery', 'upi')),
    completed_at TIMESTAMPTZ,
    created_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payments_completed ON payments(status, completed_at);
`

// EnsureSchema creates the tables the service needs if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
