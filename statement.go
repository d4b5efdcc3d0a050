package filebank

import (
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const statementDateFmt = "Jan 02, 2006 15:04"

var statementCols = []struct {
	title string
	width float64
	align string
}{
	{"Date", 38, "L"},
	{"Type", 28, "L"},
	{"Description", 62, "L"},
	{"Amount", 30, "R"},
	{"Balance", 32, "R"},
}

// writeStatement renders acct's history from since onwards as a PDF. The
// opening balance is the balance just before the first listed transaction.
func writeStatement(w io.Writer, acct *Account, since, generated time.Time) error {
	opening := decimal.Zero
	txns := make([]Transaction, 0, len(acct.Transactions))
	for _, txn := range acct.Transactions {
		if !since.IsZero() && txn.Timestamp.Before(since) {
			opening = txn.BalanceAfter
			continue
		}
		txns = append(txns, txn)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Account statement "+acct.AcctNum, true)
	pdf.SetCreationDate(generated)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Account Statement", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	header := [][2]string{
		{"Account holder", acct.FullName()},
		{"Account number", acct.AcctNum},
		{"Account type", string(acct.Type)},
		{"Status", string(acct.Status)},
		{"Interest rate", acct.InterestRate.Shift(2).StringFixed(2) + "%"},
		{"Generated", generated.Format(statementDateFmt)},
		{"Opening balance", opening.StringFixed(2)},
	}
	for _, kv := range header {
		pdf.CellFormat(40, 6, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 236, 245)
	for _, col := range statementCols {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, txn := range txns {
		amount := txn.Amount.StringFixed(2)
		if txn.Type.sign() < 0 {
			amount = "-" + amount
		}
		row := []string{
			txn.Timestamp.Format(statementDateFmt),
			string(txn.Type),
			tr(txn.Description),
			amount,
			txn.BalanceAfter.StringFixed(2),
		}
		for i, col := range statementCols {
			pdf.CellFormat(col.width, 6, row[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(txns) == 0 {
		pdf.CellFormat(0, 6, "No transactions in this period.", "1", 1, "C", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Closing balance: "+acct.Balance.StringFixed(2), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}
