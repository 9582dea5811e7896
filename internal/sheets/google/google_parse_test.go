package google

import (
	"reflect"
	"testing"
)

func TestNormalizeRows_ReordersByHeader(t *testing.T) {
	values := [][]interface{}{
		{"Type", "Date", "ID", "Description", "Amount", "Currency", "Account Number"},
		{"debit", "2025-01-02", "t1", "LIDL", -12.5, "EUR", "MT01"},
		{"credit", "2025-01-03", "t2", "Salary"},
	}
	got := normalizeRows(values)
	want := [][]string{
		{"id", "date", "description", "amount", "type", "account_number", "currency"},
		{"t1", "2025-01-02", "LIDL", "-12.5", "debit", "MT01", "EUR"},
		{"t2", "2025-01-03", "Salary", "", "credit", "", ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected rows:\n got %v\nwant %v", got, want)
	}
}

func TestNormalizeRows_NoHeaderKeepsOrder(t *testing.T) {
	values := [][]interface{}{
		{"t1", "2025-01-02", "LIDL", "12.5", "debit", "MT01", "EUR"},
	}
	got := normalizeRows(values)
	if len(got) != 1 || got[0][2] != "LIDL" {
		t.Fatalf("unexpected rows: %v", got)
	}
	if len(normalizeRows(nil)) != 0 {
		t.Fatalf("expected no rows")
	}
}

func TestHeaderAliases(t *testing.T) {
	pos, ok := headerPositions([]string{"transaction_id", "booking_date", "details", "amount", "direction", "account", "currency"})
	if !ok {
		t.Fatalf("expected aliases to resolve")
	}
	if !reflect.DeepEqual(pos, []int{0, 1, 2, 3, 4, 5, 6}) {
		t.Fatalf("unexpected positions %v", pos)
	}
	if _, ok := headerPositions([]string{"foo", "bar"}); ok {
		t.Fatalf("expected unrecognized header")
	}
}

func TestNewClient_MissingSpreadsheetID(t *testing.T) {
	if _, err := NewClient(t.Context(), Config{}); err == nil {
		t.Fatalf("expected error for missing spreadsheet id")
	}
}

func TestServiceAccountCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := serviceAccountCredentials(); err == nil {
		t.Fatalf("expected error without credentials")
	}
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"type":"service_account"}`)
	got, err := serviceAccountCredentials()
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("unexpected credentials %q err=%v", got, err)
	}
}
