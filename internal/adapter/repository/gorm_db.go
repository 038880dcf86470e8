package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
	apperrors "rentchat/pkg/errors"
	"rentchat/pkg/logger"
)

// OpenGorm connects to postgres or mysql, retrying while the database
// container comes up.
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}

	var gdb *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		gdb, err = gorm.Open(dialector, NewGormConfig())
		if err == nil {
			sqlDB, err2 := gdb.DB()
			if err2 == nil {
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetMaxOpenConns(20)
				sqlDB.SetConnMaxLifetime(time.Hour)
				return gdb, nil
			}
			err = err2
		}
		logger.Warn("database not ready (attempt %d/10): %v", i+1, err)
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, err
}

func NewGormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	}
}

// MigrateGorm creates or updates every table the service owns.
func MigrateGorm(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&entity.Member{}, &entity.Rental{}, &entity.ChatRoom{}, &entity.Chat{})
}

type gormTxKey struct{}

type gormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) repository.Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, gormTxKey{}, tx))
	})
}

// gormConn picks the transaction bound to ctx, if any.
func gormConn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// forUpdate is gormConn plus SELECT ... FOR UPDATE when ctx carries a
// transaction.
func forUpdate(ctx context.Context, db *gorm.DB) *gorm.DB {
	conn := gormConn(ctx, db)
	if _, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return conn.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return conn
}

func gormError(err error, resource, action string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(resource, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.New(apperrors.CodeConflict, fmt.Sprintf("%s already exists", resource), http.StatusConflict, err)
	default:
		return apperrors.Internal(fmt.Sprintf("Failed to %s %s", action, resource), err)
	}
}
