package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the millisecond-precision format of journal timestamps.
const TimestampLayout = "2006-01-02 15:04:05.000"

const fieldSep = "|"

// ParseAccountLine decodes "id|clientId|balance|type" into a new Account.
func ParseAccountLine(line string) (*Account, error) {
	parts := strings.Split(strings.TrimSpace(line), fieldSep)
	if len(parts) < 4 {
		return nil, fmt.Errorf("account line: want 4 fields, got %d", len(parts))
	}
	id, err := parseID(parts[0])
	if err != nil {
		return nil, fmt.Errorf("account id: %w", err)
	}
	clientID, err := parseID(parts[1])
	if err != nil {
		return nil, fmt.Errorf("account %d client id: %w", id, err)
	}
	balance, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return nil, fmt.Errorf("account %d balance: %w", id, err)
	}
	return NewAccount(id, clientID, balance, parts[3]), nil
}

// FormatAccountLine encodes a as "id|clientId|balance|type" without a newline.
func FormatAccountLine(a *Account) string {
	return strings.Join([]string{
		strconv.FormatInt(a.ID, 10),
		strconv.FormatInt(a.ClientID, 10),
		a.Balance().StringFixed(2),
		a.Type,
	}, fieldSep)
}

// ParseClientLine decodes "id|name|email|phone".
func ParseClientLine(line string) (Client, error) {
	parts := strings.Split(strings.TrimSpace(line), fieldSep)
	if len(parts) < 4 {
		return Client{}, fmt.Errorf("client line: want 4 fields, got %d", len(parts))
	}
	id, err := parseID(parts[0])
	if err != nil {
		return Client{}, fmt.Errorf("client id: %w", err)
	}
	return Client{ID: id, Name: parts[1], Email: parts[2], Phone: parts[3]}, nil
}

// FormatClientLine encodes c as "id|name|email|phone".
func FormatClientLine(c Client) string {
	return strings.Join([]string{strconv.FormatInt(c.ID, 10), c.Name, c.Email, c.Phone}, fieldSep)
}

// ParseEntryLine decodes "txId|origin|dest|amount|timestamp|status".
// Timestamps are interpreted in the local zone, as they are written.
func ParseEntryLine(line string) (Entry, error) {
	parts := strings.Split(strings.TrimSpace(line), fieldSep)
	if len(parts) < 6 {
		return Entry{}, fmt.Errorf("journal line: want 6 fields, got %d", len(parts))
	}
	var (
		e   Entry
		err error
	)
	if e.ID, err = parseID(parts[0]); err != nil {
		return Entry{}, fmt.Errorf("tx id: %w", err)
	}
	if e.Origin, err = parseID(parts[1]); err != nil {
		return Entry{}, fmt.Errorf("tx %d origin: %w", e.ID, err)
	}
	if e.Dest, err = parseID(parts[2]); err != nil {
		return Entry{}, fmt.Errorf("tx %d dest: %w", e.ID, err)
	}
	if e.Amount, err = decimal.NewFromString(strings.TrimSpace(parts[3])); err != nil {
		return Entry{}, fmt.Errorf("tx %d amount: %w", e.ID, err)
	}
	if e.Timestamp, err = time.ParseInLocation(TimestampLayout, strings.TrimSpace(parts[4]), time.Local); err != nil {
		return Entry{}, fmt.Errorf("tx %d timestamp: %w", e.ID, err)
	}
	e.Status = EntryStatus(strings.TrimSpace(parts[5]))
	return e, nil
}

// FormatEntryLine encodes e as "txId|origin|dest|amount|timestamp|status".
func FormatEntryLine(e Entry) string {
	return strings.Join([]string{
		strconv.FormatInt(e.ID, 10),
		strconv.FormatInt(e.Origin, 10),
		strconv.FormatInt(e.Dest, 10),
		e.Amount.StringFixed(2),
		e.Timestamp.Format(TimestampLayout),
		string(e.Status),
	}, fieldSep)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
