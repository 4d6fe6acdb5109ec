package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/finvera/receivables/internal/domain/receivable"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockReceivableRepository creates a GormReceivableRepository with a mocked SQL connection
func newMockReceivableRepository(t *testing.T) (*GormReceivableRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormReceivableRepository(gormDB), mock, mockDB
}

func TestSumTotals_SQL(t *testing.T) {
	t.Run("sums over matching rows", func(t *testing.T) {
		repo, mock, mockDB := newMockReceivableRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"sum"}).AddRow("1500.00")
		mock.ExpectQuery(`SELECT SUM\(total_amount\) FROM "receivables" WHERE paid = \$1`).
			WithArgs(true).
			WillReturnRows(rows)

		sum, err := repo.SumTotals(context.Background(), receivable.TotalsQuery{Paid: true})
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromFloat(1500)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NULL sum maps to sentinel", func(t *testing.T) {
		repo, mock, mockDB := newMockReceivableRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"sum"}).AddRow(nil)
		mock.ExpectQuery(`SELECT SUM\(total_amount\) FROM "receivables" WHERE paid = \$1 AND created_at >= \$2`).
			WithArgs(false, sqlmock.AnyArg()).
			WillReturnRows(rows)

		sum, err := repo.SumTotals(context.Background(), receivable.TotalsQuery{Paid: false, MonthToDate: true})
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(-1)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
