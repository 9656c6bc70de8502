package storage

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/ledgernode/internal/partition"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// TestStoreLoad tests loading accounts from partition files
func TestStoreLoad(t *testing.T) {
	t.Run("loads assigned partitions and clients", func(t *testing.T) {
		layout := partition.NewLayout(t.TempDir())
		writeFile(t, layout.AccountFile("parte1"), "101|1|1500.00|Ahorros\n102|2|3200.50|Corriente\n")
		writeFile(t, layout.AccountFile("parte2"), "1351|3|10.00|Ahorros\n")
		writeFile(t, layout.AccountFile("parte3"), "2601|4|99.00|Ahorros\n")
		writeFile(t, layout.ClientFile(), "1|Juan Pérez|juan@email.com|987654321\n2|Ana|ana@email.com|555\n")

		store := NewStore(layout, quietLogger())
		require.NoError(t, store.Load(partition.NewSet("parte1", "parte2")))

		assert.Equal(t, 3, store.Len())
		assert.Equal(t, 2, store.ClientCount())

		a, err := store.Get(102)
		require.NoError(t, err)
		assert.Equal(t, int64(2), a.ClientID)
		assert.Equal(t, "Corriente", a.Type)
		assert.True(t, decimal.RequireFromString("3200.50").Equal(a.Balance()))

		// parte3 is not assigned, so its accounts are not visible
		_, err = store.Get(2601)
		assert.True(t, errors.Is(err, ErrAccountNotFound))

		c, err := store.Client(1)
		require.NoError(t, err)
		assert.Equal(t, "Juan Pérez", c.Name)
	})

	t.Run("missing files are skipped", func(t *testing.T) {
		layout := partition.NewLayout(t.TempDir())
		writeFile(t, layout.AccountFile("parte1"), "101|1|1.00|Ahorros\n")

		store := NewStore(layout, quietLogger())
		require.NoError(t, store.Load(partition.NewSet("parte1", "parte9")))
		assert.Equal(t, 1, store.Len())
		assert.Equal(t, 0, store.ClientCount())
	})

	t.Run("malformed lines are skipped", func(t *testing.T) {
		layout := partition.NewLayout(t.TempDir())
		writeFile(t, layout.AccountFile("parte1"),
			"101|1|1.00|Ahorros\n\nnot-a-line\n102|x|2.00|Ahorros\n103|1|abc|Ahorros\n104|1|4.00|Corriente\n")

		store := NewStore(layout, quietLogger())
		require.NoError(t, store.Load(partition.NewSet("parte1")))
		assert.Equal(t, 2, store.Len())
		_, err := store.Get(104)
		assert.NoError(t, err)
	})

	t.Run("last duplicate wins", func(t *testing.T) {
		layout := partition.NewLayout(t.TempDir())
		writeFile(t, layout.AccountFile("parte1"), "101|1|1.00|Ahorros\n")
		writeFile(t, layout.AccountFile("parte2"), "101|1|2.00|Ahorros\n")

		store := NewStore(layout, quietLogger())
		require.NoError(t, store.Load(partition.NewSet("parte2", "parte1")))
		a, err := store.Get(101)
		require.NoError(t, err)
		assert.Equal(t, "2.00", a.Balance().StringFixed(2))
	})

	t.Run("reload replaces content", func(t *testing.T) {
		layout := partition.NewLayout(t.TempDir())
		writeFile(t, layout.AccountFile("parte1"), "101|1|1.00|Ahorros\n")
		writeFile(t, layout.AccountFile("parte2"), "1351|1|2.00|Ahorros\n")

		store := NewStore(layout, quietLogger())
		require.NoError(t, store.Load(partition.NewSet("parte1")))
		require.NoError(t, store.Load(partition.NewSet("parte2")))

		assert.Equal(t, 1, store.Len())
		_, err := store.Get(101)
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.Equal(t, []string{"parte2"}, store.Loaded().Names())
	})

	t.Run("each account gets its own lock", func(t *testing.T) {
		layout := partition.NewLayout(t.TempDir())
		writeFile(t, layout.AccountFile("parte1"), "101|1|1.00|Ahorros\n102|1|1.00|Ahorros\n")

		store := NewStore(layout, quietLogger())
		require.NoError(t, store.Load(partition.NewSet("parte1")))
		a, _ := store.Get(101)
		b, _ := store.Get(102)
		assert.NotSame(t, a.lock, b.lock)
	})
}

func TestStoreAccountsOrdered(t *testing.T) {
	store := NewStore(partition.NewLayout(t.TempDir()), quietLogger())
	store.Add(
		NewAccount(300, 1, decimal.Zero, "a"),
		NewAccount(100, 1, decimal.Zero, "b"),
		NewAccount(200, 1, decimal.Zero, "c"),
	)

	var ids []int64
	for _, a := range store.Accounts() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int64{100, 200, 300}, ids)
}

func TestStoreAddReplacesByID(t *testing.T) {
	store := NewStore(partition.NewLayout(t.TempDir()), quietLogger())
	store.Add(NewAccount(101, 1, decimal.NewFromInt(5), "Ahorros"))
	store.Add(NewAccount(101, 2, decimal.NewFromInt(7), "Corriente"))

	assert.Equal(t, 1, store.Len())
	a, err := store.Get(101)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.ClientID)
	assert.Equal(t, "7.00", a.Balance().StringFixed(2))
}

func TestStoreClientNotFound(t *testing.T) {
	store := NewStore(partition.NewLayout(t.TempDir()), nil)
	_, err := store.Client(42)
	assert.ErrorIs(t, err, ErrClientNotFound)
}
