package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/empirehq/revenue_backend/utils"
	"github.com/xuri/excelize/v2"
)

const excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportRevenueAnalyticsExcel renders the analytics report as a workbook,
// uploads it to object storage and returns the access URL.
func ExportRevenueAnalyticsExcel(ctx context.Context, fromDate time.Time, toDate time.Time,
	vertical *string, partnerId *int) (string, error) {

	report, err := GetRevenueAnalyticsReport(ctx, fromDate, toDate, vertical, partnerId)
	if err != nil {
		return "", err
	}

	data, err := buildRevenueAnalyticsWorkbook(report)
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("reports/revenue-analytics-%s-%s-%d.xlsx",
		fromDate.Format("20060102"), toDate.Format("20060102"), time.Now().UTC().Unix())
	if err := utils.SaveReportToGCS(ctx, objectName, excelContentType, data); err != nil {
		return "", err
	}
	return utils.BuildObjectAccessURL(objectName), nil
}

func buildRevenueAnalyticsWorkbook(report *RevenueAnalyticsResponse) ([]byte, error) {

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Summary"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", "Period")
	f.SetCellValue(sheet, "B1", report.FromDate.Format("2006-01-02")+" to "+report.ToDate.Format("2006-01-02"))

	summaryRows := [][]interface{}{
		{"Total Revenue", report.Totals.TotalRevenue.String()},
		{"Total Commissions", report.Totals.TotalCommissions.String()},
		{"Total Bonuses", report.Totals.TotalBonuses.String()},
		{"Total Fees", report.Totals.TotalFees.String()},
		{"Total Net Payout", report.Totals.TotalNetPayout.String()},
		{"Transactions", report.Totals.TransactionCount},
		{"Average Order Value", report.Totals.AverageOrderValue.String()},
		{"Growth Rate %", report.GrowthRate.String()},
	}
	for i, row := range summaryRows {
		f.SetCellValue(sheet, "A"+fmt.Sprint(i+3), row[0])
		f.SetCellValue(sheet, "B"+fmt.Sprint(i+3), row[1])
	}

	partnerSheet := "Top Partners"
	if _, err := f.NewSheet(partnerSheet); err != nil {
		return nil, err
	}
	f.SetCellValue(partnerSheet, "A1", "Partner Code")
	f.SetCellValue(partnerSheet, "B1", "Partner Name")
	f.SetCellValue(partnerSheet, "C1", "Revenue")
	f.SetCellValue(partnerSheet, "D1", "Commissions")
	f.SetCellValue(partnerSheet, "E1", "Transactions")
	for i, p := range report.TopPartners {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(partnerSheet, "A"+row, utils.DereferencePtr(p.PartnerCode, ""))
		f.SetCellValue(partnerSheet, "B"+row, utils.DereferencePtr(p.PartnerName, ""))
		f.SetCellValue(partnerSheet, "C"+row, p.TotalRevenue.String())
		f.SetCellValue(partnerSheet, "D"+row, p.TotalCommissions.String())
		f.SetCellValue(partnerSheet, "E"+row, p.TransactionCount)
	}

	productSheet := "Top Products"
	if _, err := f.NewSheet(productSheet); err != nil {
		return nil, err
	}
	f.SetCellValue(productSheet, "A1", "Product Id")
	f.SetCellValue(productSheet, "B1", "Product Name")
	f.SetCellValue(productSheet, "C1", "Revenue")
	f.SetCellValue(productSheet, "D1", "Commissions")
	f.SetCellValue(productSheet, "E1", "Transactions")
	for i, p := range report.TopProducts {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(productSheet, "A"+row, utils.DereferencePtr(p.ProductId, ""))
		f.SetCellValue(productSheet, "B"+row, utils.DereferencePtr(p.ProductName, ""))
		f.SetCellValue(productSheet, "C"+row, p.TotalRevenue.String())
		f.SetCellValue(productSheet, "D"+row, p.TotalCommissions.String())
		f.SetCellValue(productSheet, "E"+row, p.TransactionCount)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
