package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tailorbook-backend/utils"
)

// CreateTransactionInput records a manual ledger entry: positive amount for
// a new debt, negative for a payment received.
type CreateTransactionInput struct {
	CustomerID  string  `json:"customerId" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Description string  `json:"description" binding:"required"`
}

// CreateTransaction adds a free-form debit/credit not tied to an order
func CreateTransaction(c *gin.Context) {
	var input CreateTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	tx, err := Ledger.AddTransaction(c.Request.Context(), partition(c),
		input.CustomerID, input.Amount, input.Description)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// GetTransactions retrieves the partition's ledger, optionally filtered by customer
func GetTransactions(c *gin.Context) {
	p := partition(c)
	if customerID := c.Query("customerId"); customerID != "" {
		txs, err := Ledger.TransactionsForCustomer(c.Request.Context(), p, customerID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, txs)
		return
	}

	txs, err := Ledger.Transactions(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}
