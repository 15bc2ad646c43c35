package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/FrostIris6/pub-ledger/internal/domain/entity"
	"github.com/FrostIris6/pub-ledger/pkg/apperror"
)

const historySheet = "History"

var historyHeader = []string{
	"Transaction", "Table", "Time", "Product ID", "Specification",
	"Qty", "Unit Price", "Original Price", "Discount %", "Line Total",
}

// HistoryWorkbook builds an XLSX report from settled orders: one row per
// line item, with the pre-discount price preserved for reporting, and a
// grand total at the bottom.
func HistoryWorkbook(orders []entity.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return nil, err
	}

	for col, title := range historyHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(historySheet, cell, title); err != nil {
			return nil, err
		}
	}

	row := 2
	grandTotal := 0.0
	for i := range orders {
		order := &orders[i]
		for j := range order.Breakdown {
			item := &order.Breakdown[j]

			originalPrice := item.Price
			if item.OriginalPrice != nil {
				originalPrice = *item.OriginalPrice
			}
			discount := ""
			if item.DiscountPercentage != nil {
				discount = fmt.Sprintf("%.1f", *item.DiscountPercentage)
			}
			lineTotal := item.Price * float64(item.Amount)
			grandTotal += lineTotal

			values := []interface{}{
				order.TransactionID, order.TableID, order.TransactionTime,
				item.ProductID.String(), item.Specification,
				item.Amount, item.Price, originalPrice, discount, lineTotal,
			}
			for col, value := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return nil, err
				}
				if err := f.SetCellValue(historySheet, cell, value); err != nil {
					return nil, err
				}
			}
			row++
		}
	}

	totalLabel, err := excelize.CoordinatesToCellName(len(historyHeader)-1, row)
	if err != nil {
		return nil, err
	}
	totalCell, err := excelize.CoordinatesToCellName(len(historyHeader), row)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellValue(historySheet, totalLabel, "Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(historySheet, totalCell, grandTotal); err != nil {
		return nil, err
	}

	return f, nil
}

// WriteHistory writes the history report to an XLSX file.
func WriteHistory(orders []entity.Order, path string) error {
	f, err := HistoryWorkbook(orders)
	if err != nil {
		return apperror.NewPersistenceError("failed to build history workbook", err)
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return apperror.NewPersistenceError("failed to write history workbook", err)
	}
	return nil
}
