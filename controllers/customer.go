package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tailorbook-backend/models"
	"tailorbook-backend/services"
	"tailorbook-backend/utils"
)

// CreateCustomerInput defines the expected JSON structure for creating a customer
type CreateCustomerInput struct {
	Name         string              `json:"name" binding:"required"`
	Phone        string              `json:"phone" binding:"required"`
	Address      string              `json:"address"`
	Notes        string              `json:"notes"`
	Measurements models.Measurements `json:"measurements"`
}

// UpdateCustomerInput defines the expected JSON structure for updating a customer
type UpdateCustomerInput struct {
	Name         *string              `json:"name"`
	Phone        *string              `json:"phone"`
	Address      *string              `json:"address"`
	Notes        *string              `json:"notes"`
	Measurements *models.Measurements `json:"measurements"`
}

// CreateCustomer adds a customer to the selected partition
func CreateCustomer(c *gin.Context) {
	var input CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	customer, err := Ledger.CreateCustomer(c.Request.Context(), partition(c),
		input.Name, input.Phone, input.Measurements, input.Address, input.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// GetCustomers retrieves all customers in the partition
func GetCustomers(c *gin.Context) {
	customers, err := Ledger.Customers(c.Request.Context(), partition(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

// GetCustomer retrieves a specific customer with their orders and ledger history
func GetCustomer(c *gin.Context) {
	p := partition(c)
	id := c.Param("id")

	customer, err := Ledger.Customer(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	orders, err := Ledger.OrdersForCustomer(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	transactions, err := Ledger.TransactionsForCustomer(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer":     customer,
		"orders":       orders,
		"transactions": transactions,
	})
}

// UpdateCustomer updates an existing customer. Balance and code are
// system-managed and not accepted here.
func UpdateCustomer(c *gin.Context) {
	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Phone != nil && !utils.ValidatePhone(*input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	customer, err := Ledger.UpdateCustomer(c.Request.Context(), partition(c), c.Param("id"), services.CustomerUpdate{
		Name:         input.Name,
		Phone:        input.Phone,
		Address:      input.Address,
		Notes:        input.Notes,
		Measurements: input.Measurements,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer removes a customer with no orders and a settled balance
func DeleteCustomer(c *gin.Context) {
	if err := Ledger.DeleteCustomer(c.Request.Context(), partition(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
