// controllers/report.go
package controllers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// ReportController handles all reporting functions
type ReportController struct{}

// LedgerReport summarizes money flow derived from the transaction ledger
type LedgerReport struct {
	TotalCharged  float64       `json:"totalCharged"`
	TotalReceived float64       `json:"totalReceived"`
	Outstanding   float64       `json:"outstanding"`
	Monthly       []MonthlyFlow `json:"monthly"`
	TopDebtors    []DebtorEntry `json:"topDebtors"`
}

type MonthlyFlow struct {
	Month    string  `json:"month"` // YYYY-MM
	Charged  float64 `json:"charged"`
	Received float64 `json:"received"`
}

type DebtorEntry struct {
	CustomerID string  `json:"customerId"`
	Name       string  `json:"name"`
	Code       int     `json:"code,omitempty"`
	Balance    float64 `json:"balance"`
}

// GetLedgerReport builds the money-flow report for the selected partition
func (rc *ReportController) GetLedgerReport(c *gin.Context) {
	p := partition(c)
	ctx := c.Request.Context()

	txs, err := Ledger.Transactions(ctx, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	customers, err := Ledger.Customers(ctx, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	report := LedgerReport{Monthly: []MonthlyFlow{}, TopDebtors: []DebtorEntry{}}
	byMonth := map[string]*MonthlyFlow{}

	for _, t := range txs {
		month := monthOf(t.Date)
		flow, ok := byMonth[month]
		if !ok {
			flow = &MonthlyFlow{Month: month}
			byMonth[month] = flow
		}
		if t.Amount > 0 {
			report.TotalCharged += t.Amount
			flow.Charged += t.Amount
		} else {
			report.TotalReceived += -t.Amount
			flow.Received += -t.Amount
		}
	}
	report.Outstanding = report.TotalCharged - report.TotalReceived

	for _, flow := range byMonth {
		report.Monthly = append(report.Monthly, *flow)
	}
	sort.Slice(report.Monthly, func(i, j int) bool {
		return report.Monthly[i].Month < report.Monthly[j].Month
	})

	for _, cust := range customers {
		if cust.Balance > 0 {
			report.TopDebtors = append(report.TopDebtors, DebtorEntry{
				CustomerID: cust.ID,
				Name:       cust.Name,
				Code:       cust.Code,
				Balance:    cust.Balance,
			})
		}
	}
	sort.Slice(report.TopDebtors, func(i, j int) bool {
		return report.TopDebtors[i].Balance > report.TopDebtors[j].Balance
	})
	if len(report.TopDebtors) > 10 {
		report.TopDebtors = report.TopDebtors[:10]
	}

	c.JSON(http.StatusOK, report)
}

// monthOf trims a YYYY-MM-DD display date down to YYYY-MM.
func monthOf(date string) string {
	if i := strings.LastIndex(date, "-"); i > 4 {
		return date[:i]
	}
	return date
}
