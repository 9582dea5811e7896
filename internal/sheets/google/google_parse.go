package google

import (
	"fmt"
	"strings"
)

// canonicalColumns is the column order the ingest package expects.
var canonicalColumns = []string{"id", "date", "description", "amount", "type", "account_number", "currency"}

// headerAliases maps alternative header spellings onto canonical names.
var headerAliases = map[string]string{
	"transaction_id": "id",
	"booking_date":   "date",
	"details":        "description",
	"direction":      "type",
	"account":        "account_number",
	"accountnumber":  "account_number",
}

// normalizeRows reorders columns when the first row is a recognizable
// header. Without a header the sheet is assumed to be in canonical order.
func normalizeRows(values [][]interface{}) [][]string {
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, toStrings(v))
	}
	if len(rows) == 0 {
		return rows
	}
	positions, ok := headerPositions(rows[0])
	if !ok {
		return rows
	}
	out := make([][]string, 0, len(rows))
	out = append(out, append([]string(nil), canonicalColumns...))
	for _, row := range rows[1:] {
		mapped := make([]string, len(canonicalColumns))
		for i, pos := range positions {
			mapped[i] = safeGet(row, pos)
		}
		out = append(out, mapped)
	}
	return out
}

func headerPositions(header []string) ([]int, bool) {
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		h = strings.ReplaceAll(h, " ", "_")
		if alias, ok := headerAliases[h]; ok {
			h = alias
		}
		names[i] = h
	}
	positions := make([]int, len(canonicalColumns))
	for i, col := range canonicalColumns {
		positions[i] = indexOf(names, col)
		if positions[i] == -1 {
			return nil, false
		}
	}
	return positions, true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if v == target {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx >= 0 && idx < len(arr) {
		return arr[idx]
	}
	return ""
}
