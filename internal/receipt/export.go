package receipt

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/zombor/expense-tracker/internal/parsing"
)

// csvRow is one candidate in the CSV export
type csvRow struct {
	UploadGroupID string  `csv:"upload_group_id"`
	Filename      string  `csv:"filename"`
	Date          string  `csv:"date"`
	DateWarning   string  `csv:"date_warning"`
	Description   string  `csv:"description"`
	Category      string  `csv:"category"`
	Amount        float64 `csv:"amount"`
	Currency      string  `csv:"currency"`
	FXRate        float64 `csv:"fx_rate"`
	AmountEUR     float64 `csv:"amount_eur"`
	Person        string  `csv:"person"`
	Beneficiary   string  `csv:"beneficiary"`
	Source        string  `csv:"source"`
}

func newCSVRow(groupID, filename string, c parsing.Candidate) *csvRow {
	return &csvRow{
		UploadGroupID: groupID,
		Filename:      filename,
		Date:          c.Date,
		DateWarning:   c.DateWarning,
		Description:   c.Description,
		Category:      c.Category,
		Amount:        c.Amount,
		Currency:      c.Currency,
		FXRate:        c.FXRate,
		AmountEUR:     c.AmountEUR,
		Person:        c.Person,
		Beneficiary:   c.Beneficiary,
		Source:        string(c.Source),
	}
}

// WriteCSV writes every candidate of the batch as one CSV row
func WriteCSV(w io.Writer, batch *Batch) error {
	rows := make([]*csvRow, 0)
	for _, r := range batch.Results {
		for _, c := range r.Candidates {
			rows = append(rows, newCSVRow(batch.UploadGroupID, r.Filename, c))
		}
	}
	if len(rows) == 0 {
		// gocsv writes nothing for an empty slice; keep the header
		if _, err := io.WriteString(w, csvHeader+"\n"); err != nil {
			return fmt.Errorf("writing csv header: %w", err)
		}
		return nil
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// csvHeader lists the csv tags of csvRow in field order
var csvHeader = func() string {
	t := reflect.TypeOf(csvRow{})
	cols := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		cols = append(cols, t.Field(i).Tag.Get("csv"))
	}
	return strings.Join(cols, ",")
}()
