package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tailorbook-backend/models"
	"tailorbook-backend/services"
	"tailorbook-backend/utils"
)

// CreateOrderInput defines the expected JSON structure for creating an order
type CreateOrderInput struct {
	CustomerID   string            `json:"customerId" binding:"required"`
	Description  string            `json:"description"`
	ClothPrice   float64           `json:"clothPrice" binding:"min=0"`
	SewingFee    float64           `json:"sewingFee" binding:"min=0"`
	Deposit      float64           `json:"deposit" binding:"min=0"`
	DueDate      string            `json:"dueDate"`
	StyleDetails map[string]string `json:"styleDetails"`
	Notes        string            `json:"notes"`
}

// UpdateStatusInput carries the new order status
type UpdateStatusInput struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// PaymentInput records a payment toward an order
type PaymentInput struct {
	Amount float64 `json:"amount" binding:"required"`
}

// CreateOrder creates an order plus its remainder transaction
func CreateOrder(c *gin.Context) {
	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	order, err := Ledger.CreateOrder(c.Request.Context(), partition(c), services.OrderInput{
		CustomerID:   input.CustomerID,
		Description:  input.Description,
		ClothPrice:   input.ClothPrice,
		SewingFee:    input.SewingFee,
		Deposit:      input.Deposit,
		DueDate:      input.DueDate,
		StyleDetails: input.StyleDetails,
		Notes:        input.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrders retrieves all orders in the partition, optionally filtered by customer
func GetOrders(c *gin.Context) {
	p := partition(c)
	if customerID := c.Query("customerId"); customerID != "" {
		orders, err := Ledger.OrdersForCustomer(c.Request.Context(), p, customerID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
		return
	}

	orders, err := Ledger.Orders(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrderDebt returns the remaining amount owed on one order
func GetOrderDebt(c *gin.Context) {
	debt, err := Ledger.OrderDebt(c.Request.Context(), partition(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": c.Param("id"), "debt": debt})
}

// UpdateOrderStatus sets an order's status. Moving into READY triggers the
// customer notification dispatch.
func UpdateOrderStatus(c *gin.Context) {
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	order, err := Ledger.UpdateOrderStatus(c.Request.Context(), partition(c), c.Param("id"), input.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// AddOrderPayment records a partial or remainder payment toward an order
func AddOrderPayment(c *gin.Context) {
	var input PaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	tx, err := Ledger.AddPayment(c.Request.Context(), partition(c), c.Param("id"), input.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// DeleteOrder removes a fully settled order and its linked transactions
func DeleteOrder(c *gin.Context) {
	if err := Ledger.DeleteOrder(c.Request.Context(), partition(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
