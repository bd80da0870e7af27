package database

import (
	"context"
	"errors"
	"strings"

	"pesantrenku_backend/internals/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	ctxTxKey    struct{}
	ctxHooksKey struct{}
)

// txHooks are run once the outermost transaction has committed.
type txHooks struct {
	fns []func(ctx context.Context)
}

// IClient hands out the gorm handle bound to the current transaction, if any.
type IClient interface {
	// WithTx runs fn in a transaction. Nested calls join the outer transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// DB returns the transaction handle from ctx, or the pool handle.
	DB(ctx context.Context) *gorm.DB
}

type Client struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClient(db *gorm.DB, log *logger.Logger) *Client {
	return &Client{db: db, log: log.Named("db")}
}

func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	hooks := &txHooks{}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, ctxTxKey{}, tx)
		return fn(context.WithValue(txCtx, ctxHooksKey{}, hooks))
	})
	if err != nil {
		c.log.Debugw("transaction rolled back", "error", err)
		return err
	}
	for _, h := range hooks.fns {
		h(ctx)
	}
	return nil
}

// AfterCommit defers fn until the outermost transaction in ctx commits; it is
// dropped on rollback. Outside a transaction fn runs immediately. fn never
// sees the transaction handle.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if hooks, ok := ctx.Value(ctxHooksKey{}).(*txHooks); ok && txFromContext(ctx) != nil {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn(ctx)
}

func (c *Client) DB(ctx context.Context) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return c.db.WithContext(ctx)
}

func txFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(ctxTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// ForUpdate adds SELECT ... FOR UPDATE. Dialects without row locks ignore it.
func ForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// IsUniqueViolation detects duplicate-key errors from postgres (23505) and sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key value") || strings.Contains(s, "unique constraint")
}
