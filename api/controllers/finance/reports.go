package finance

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/angelmondragon/tixledger/api/responses"
	"github.com/angelmondragon/tixledger/internal/reporting"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
	"github.com/angelmondragon/tixledger/pkg/logger"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// IncomeReport returns the income report for the requested period.
func IncomeReport(svc reporting.Service, defaultRangeDays int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := loadIncomeReport(w, r, svc, defaultRangeDays, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// ExportIncomeCSV streams the income report as a UTF-8 CSV with BOM.
func ExportIncomeCSV(svc reporting.Service, defaultRangeDays int, logg *logger.Logger) http.HandlerFunc {
	return exportIncome(svc, defaultRangeDays, logg, "csv", contentTypeCSV, reporting.WriteCSV)
}

// ExportIncomeXLSX streams the income report as a spreadsheet.
func ExportIncomeXLSX(svc reporting.Service, defaultRangeDays int, logg *logger.Logger) http.HandlerFunc {
	return exportIncome(svc, defaultRangeDays, logg, "xlsx", contentTypeXLSX, reporting.WriteXLSX)
}

func exportIncome(
	svc reporting.Service,
	defaultRangeDays int,
	logg *logger.Logger,
	ext, contentType string,
	write func(w io.Writer, report *reporting.IncomeReport) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := loadIncomeReport(w, r, svc, defaultRangeDays, logg)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := write(&buf, report); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render export"))
			return
		}
		filename := fmt.Sprintf("income-%s-%s.%s",
			report.Current.Range.Start.Format("20060102"),
			report.Current.Range.End.Format("20060102"),
			ext,
		)
		responses.WriteFile(w, contentType, filename, buf.Bytes())
	}
}

func loadIncomeReport(w http.ResponseWriter, r *http.Request, svc reporting.Service, defaultRangeDays int, logg *logger.Logger) (*reporting.IncomeReport, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reporting service unavailable"))
		return nil, false
	}
	query, err := parseIncomeQuery(r, defaultRangeDays)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	report, err := svc.GetIncomeReport(r.Context(), query)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return report, true
}
