package orders

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mmeshcher/storefront-core/internal/model"
)

var exportHeader = []string{"Order ID", "Customer", "Status", "Total", "Date"}

// ExportSnapshot пишет весь список заказов в CSV. Значения с разделителем,
// кавычками или переводом строки экранируются.
func ExportSnapshot(w io.Writer, list []model.Order) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, o := range list {
		record := []string{
			o.ID,
			o.CustomerEmail,
			o.Status.String(),
			strconv.FormatFloat(model.FormatCents(o.Total), 'f', 2, 64),
			o.CreatedAt.UTC().Format("2006-01-02"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write order %s: %w", o.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Export выгружает последний загруженный список.
func (m *Manager) Export(w io.Writer) error {
	return ExportSnapshot(w, m.Orders())
}
