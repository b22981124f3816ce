package google

import (
	"strings"

	"tutorbook/internal/core"
)

// parseStatement converts a values matrix (as returned by Sheets API) into
// statement rows. A header row and rows without a payment id are skipped.
func parseStatement(values [][]interface{}) []core.StatementRow {
	var out []core.StatementRow
	for i, raw := range values {
		cols := toStrings(raw)
		id := safeGet(cols, 0)
		if id == "" {
			continue
		}
		if i == 0 && strings.EqualFold(id, "payment id") {
			continue
		}
		out = append(out, core.StatementRow{
			PaymentID: id,
			Date:      core.ParseDate(safeGet(cols, 1)),
			Student:   safeGet(cols, 2),
			Group:     safeGet(cols, 3),
			Amount:    core.ParseAmount(safeGet(cols, 4)).Decimal(),
			Note:      safeGet(cols, 5),
		})
	}
	return out
}

// findRowIndex returns the zero-based index of the first row whose first
// cell equals paymentID, or -1.
func findRowIndex(values [][]interface{}, paymentID string) int {
	if paymentID == "" {
		return -1
	}
	for i, raw := range values {
		if cols := toStrings(raw); safeGet(cols, 0) == paymentID {
			return i
		}
	}
	return -1
}
