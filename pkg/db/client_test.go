package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dsn := fmt.Sprintf("file:dbclient_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := Open(sqlite.Open(dsn))
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	client := NewFromConn(conn)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, client.DB().Model(&testModel{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")

	require.NoError(t, client.DB().Model(&testModel{}).Count(&count).Error)
	require.EqualValues(t, 1, count, "rollback should leave the first record only")
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	client := newTestClient(t)

	require.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "panicked"}).Error; err != nil {
				return err
			}
			panic("kaboom")
		})
	})

	var count int64
	require.NoError(t, client.DB().Model(&testModel{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPingAndDialect(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.Ping(context.Background()))
	require.Equal(t, "sqlite", client.Dialect())
	require.False(t, ForUpdate(client.DB()))
	require.False(t, ForUpdate(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	client := newTestClient(t)

	require.NoError(t, client.DB().Create(&testModel{Name: "beaker"}).Error)
	err := client.DB().Create(&testModel{Name: "beaker"}).Error
	require.Error(t, err)

	require.True(t, IsUniqueViolation(err, ""))
	require.True(t, IsUniqueViolation(err, "name"))
	require.False(t, IsUniqueViolation(err, "other_column"))
	require.False(t, IsUniqueViolation(nil, ""))
	require.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "inventory_items_name_key"`), "inventory_items_name_key"))
}

func TestIsNotFound(t *testing.T) {
	client := newTestClient(t)

	var m testModel
	err := client.DB().First(&m, "name = ?", "missing").Error
	require.True(t, IsNotFound(err))
	require.False(t, IsNotFound(errors.New("other")))
}
