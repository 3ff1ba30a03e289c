package admin

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/activity"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/catalog"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

var orderHeaders = []string{
	"Order ID", "Customer", "Email", "Address", "Items", "Total",
	"Status", "Payment Status", "Payment Method", "Transaction", "Assigned To",
	"Created At", "Updated At",
}

// ExportOrders writes the filtered orders as an .xlsx workbook.
func (c *Console) ExportOrders(ctx context.Context, actor user.Session, f Filter, w io.Writer) error {
	orders, err := c.Orders(ctx, actor, f)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	headerRow := sheet.AddRow()
	for _, h := range orderHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, o := range orders {
		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, fmt.Sprintf("%dx %s %s", it.Qty, it.Name, it.Strength))
		}
		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(o.UserName)
		row.AddCell().SetValue(o.UserEmail)
		row.AddCell().SetValue(o.Address)
		row.AddCell().SetValue(strings.Join(items, "; "))
		row.AddCell().SetValue(o.TotalPrice)
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(string(o.PaymentStatus))
		row.AddCell().SetValue(string(o.PaymentMethod))
		row.AddCell().SetValue(o.PaymentDetails.TransactionRef())
		row.AddCell().SetValue(o.AssignedTo)
		row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(o.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ImportResult counts what a catalog upload did.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// ImportMedicines loads a workbook whose first sheet has a header row followed by
// ID, Name, Strength, Form, Price, Stock, Manufacturer, Category columns. Rows for
// existing ids overwrite them; malformed rows are skipped. The catalog is saved once.
func (c *Console) ImportMedicines(ctx context.Context, actor user.Session, r io.ReaderAt, size int64) (ImportResult, error) {
	var res ImportResult
	if err := requireAdmin(actor); err != nil {
		return res, err
	}
	book, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return res, fmt.Errorf("%w: unreadable workbook: %v", apperr.ErrValidation, err)
	}
	if len(book.Sheets) == 0 || len(book.Sheets[0].Rows) < 2 {
		return res, fmt.Errorf("%w: workbook is empty or missing header row", apperr.ErrValidation)
	}

	meds := c.catalog.Fresh(ctx)
	index := make(map[string]int, len(meds))
	for i, m := range meds {
		index[m.ID] = i
	}
	for _, row := range book.Sheets[0].Rows[1:] {
		m, ok := medicineFromRow(row)
		if !ok {
			res.Skipped++
			continue
		}
		if i, exists := index[m.ID]; exists {
			meds[i] = m
			res.Updated++
			continue
		}
		index[m.ID] = len(meds)
		meds = append(meds, m)
		res.Created++
	}
	if res.Created+res.Updated == 0 {
		return res, nil
	}
	if err := c.catalog.Save(ctx, meds); err != nil {
		return res, err
	}
	c.activity.Recordf(ctx, actor, activity.ActionCatalogImport, "catalog import: %d created, %d updated, %d skipped", res.Created, res.Updated, res.Skipped)
	return res, nil
}

func medicineFromRow(row *xlsx.Row) (catalog.Medicine, bool) {
	if row == nil || len(row.Cells) < 6 {
		return catalog.Medicine{}, false
	}
	get := func(i int) string {
		if i < len(row.Cells) {
			return strings.TrimSpace(row.Cells[i].Value)
		}
		return ""
	}
	price, err := strconv.ParseFloat(get(4), 64)
	if err != nil {
		return catalog.Medicine{}, false
	}
	stock, err := strconv.Atoi(get(5))
	if err != nil {
		return catalog.Medicine{}, false
	}
	m := catalog.Medicine{
		ID:           get(0),
		Name:         get(1),
		Strength:     get(2),
		Form:         get(3),
		Price:        price,
		Stock:        stock,
		Manufacturer: get(6),
		Category:     get(7),
	}
	if m.Validate() != nil || m.Strength == "" || m.Form == "" {
		return catalog.Medicine{}, false
	}
	return m, true
}
