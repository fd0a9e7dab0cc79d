package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tailorbook-backend/models"
	"tailorbook-backend/utils"
)

type DashboardOverview struct {
	TotalCustomers int            `json:"totalCustomers"`
	TotalDebt      float64        `json:"totalDebt"`
	TotalCredit    float64        `json:"totalCredit"`
	OpenOrders     int            `json:"openOrders"`
	StatusCounts   map[string]int `json:"statusCounts"`
	StaleOrders    []StaleOrder   `json:"staleOrders"`
	RecentOrders   []models.Order `json:"recentOrders"`
}

// StaleOrder flags unfinished work sitting in the shop for too long.
type StaleOrder struct {
	OrderID     string `json:"orderId"`
	Description string `json:"description"`
	Status      string `json:"status"`
	AgeDays     int    `json:"ageDays"`
}

const staleAfterDays = 30

// GetDashboardOverview summarizes the selected partition
func GetDashboardOverview(c *gin.Context) {
	p := partition(c)
	ctx := c.Request.Context()

	customers, err := Ledger.Customers(ctx, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	orders, err := Ledger.Orders(ctx, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	overview := DashboardOverview{
		TotalCustomers: len(customers),
		StatusCounts:   map[string]int{},
		StaleOrders:    []StaleOrder{},
	}

	for _, cust := range customers {
		if cust.Balance > 0 {
			overview.TotalDebt += cust.Balance
		} else if cust.Balance < 0 {
			overview.TotalCredit += -cust.Balance
		}
	}

	now := time.Now()
	for _, o := range orders {
		overview.StatusCounts[string(o.Status)]++
		if o.Status == models.StatusCompleted {
			continue
		}
		overview.OpenOrders++
		if o.CreatedAt > 0 {
			age := utils.DaysBetween(time.UnixMilli(o.CreatedAt), now)
			if age >= staleAfterDays {
				overview.StaleOrders = append(overview.StaleOrders, StaleOrder{
					OrderID:     o.ID,
					Description: o.Description,
					Status:      string(o.Status),
					AgeDays:     age,
				})
			}
		}
	}

	// Last five orders, newest first.
	recent := []models.Order{}
	for i := len(orders) - 1; i >= 0 && len(recent) < 5; i-- {
		recent = append(recent, orders[i])
	}
	overview.RecentOrders = recent

	c.JSON(http.StatusOK, overview)
}
