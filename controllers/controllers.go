package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tailorbook-backend/services"
	"tailorbook-backend/storage"
	"tailorbook-backend/utils"
)

// Package-level handles, wired once from main.
var (
	Ledger *services.LedgerService
	Backup *services.BackupService
	Store  storage.Store
)

func Setup(ledger *services.LedgerService, backup *services.BackupService, store storage.Store) {
	Ledger = ledger
	Backup = backup
	Store = store
}

// partition picks the data partition from the mode query parameter
// (?mode=simple), defaulting to professional.
func partition(c *gin.Context) storage.Partition {
	return storage.ParsePartition(c.Query("mode"))
}

// respondServiceError maps domain errors to HTTP responses. Every rejected
// mutation carries the specific violated rule, never a generic failure.
func respondServiceError(c *gin.Context, err error) {
	var validation *services.ValidationError
	var precondition *services.PreconditionError
	var remote *services.RemoteSyncError

	switch {
	case errors.As(err, &validation):
		utils.RespondWithError(c, http.StatusBadRequest, validation.Reason)
	case errors.As(err, &precondition):
		utils.RespondWithError(c, http.StatusConflict, precondition.Reason)
	case errors.Is(err, services.ErrCustomerNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, services.ErrMalformedBackup):
		utils.RespondWithError(c, http.StatusBadRequest, "Backup file not recognized; nothing was restored")
	case errors.Is(err, services.ErrNoRemoteBackup):
		utils.RespondWithError(c, http.StatusNotFound, "No cloud backup found for this account")
	case errors.As(err, &remote):
		utils.RespondWithError(c, http.StatusBadGateway, "Cloud sync failed, please retry: "+remote.Err.Error())
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, "Storage error")
	}
}
