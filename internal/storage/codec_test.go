package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccountLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr bool
		balance string
		typ     string
	}{
		{name: "standard", line: "101|1|1500.00|Ahorros", balance: "1500.00", typ: "Ahorros"},
		{name: "trailing CR", line: "102|2|3200.50|Corriente\r", balance: "3200.50", typ: "Corriente"},
		{name: "integer balance", line: "103|2|7|Corriente", balance: "7.00", typ: "Corriente"},
		{name: "too few fields", line: "101|1|1500.00", wantErr: true},
		{name: "bad id", line: "abc|1|1.00|Ahorros", wantErr: true},
		{name: "bad client", line: "101|?|1.00|Ahorros", wantErr: true},
		{name: "bad balance", line: "101|1|lots|Ahorros", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAccountLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.balance, a.Balance().StringFixed(2))
			assert.Equal(t, tt.typ, a.Type)
			assert.NotNil(t, a.lock)
		})
	}
}

func TestFormatAccountLine(t *testing.T) {
	a := NewAccount(101, 1, decimal.RequireFromString("1000"), "Ahorros")
	assert.Equal(t, "101|1|1000.00|Ahorros", FormatAccountLine(a))

	back, err := ParseAccountLine(FormatAccountLine(a))
	require.NoError(t, err)
	assert.Equal(t, a.ID, back.ID)
	assert.Equal(t, a.ClientID, back.ClientID)
	assert.Equal(t, a.Type, back.Type)
	assert.True(t, a.Balance().Equal(back.Balance()))
}

func TestClientLine(t *testing.T) {
	c, err := ParseClientLine("1|Juan Pérez|juan@email.com|987654321")
	require.NoError(t, err)
	assert.Equal(t, Client{ID: 1, Name: "Juan Pérez", Email: "juan@email.com", Phone: "987654321"}, c)
	assert.Equal(t, "1|Juan Pérez|juan@email.com|987654321", FormatClientLine(c))

	_, err = ParseClientLine("1|Juan")
	assert.Error(t, err)
}

func TestEntryLine(t *testing.T) {
	ts := time.Date(2025, 5, 1, 10, 30, 15, 123_000_000, time.Local)
	e := Entry{
		ID:        7,
		Origin:    101,
		Dest:      102,
		Amount:    decimal.RequireFromString("500"),
		Timestamp: ts,
		Status:    StatusConfirmed,
	}

	line := FormatEntryLine(e)
	assert.Equal(t, "7|101|102|500.00|2025-05-01 10:30:15.123|Confirmada", line)

	back, err := ParseEntryLine(line)
	require.NoError(t, err)
	assert.Equal(t, e.ID, back.ID)
	assert.Equal(t, e.Origin, back.Origin)
	assert.Equal(t, e.Dest, back.Dest)
	assert.True(t, e.Amount.Equal(back.Amount))
	assert.True(t, e.Timestamp.Equal(back.Timestamp))
	assert.Equal(t, StatusConfirmed, back.Status)

	for _, bad := range []string{
		"7|101|102|500.00|2025-05-01 10:30:15.123",
		"x|101|102|500.00|2025-05-01 10:30:15.123|Confirmada",
		"7|101|102|five|2025-05-01 10:30:15.123|Confirmada",
		"7|101|102|500.00|yesterday|Confirmada",
	} {
		_, err := ParseEntryLine(bad)
		assert.Error(t, err, bad)
	}
}

func TestScanEntries(t *testing.T) {
	input := strings.Join([]string{
		"1|101|102|1.00|2025-05-01 10:00:00.000|Confirmada",
		"",
		"garbage",
		"2|102|101|2.00|2025-05-01 10:00:01.000|Confirmada",
	}, "\n")

	var ids []int64
	var bad []int
	n, err := ScanEntries(strings.NewReader(input),
		func(e Entry) { ids = append(ids, e.ID) },
		func(lineNo int, _ string) { bad = append(bad, lineNo) },
	)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2}, ids)
	assert.Equal(t, []int{3}, bad)
}
