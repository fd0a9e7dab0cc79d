package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tailorbook-backend/utils"
)

// ExportBackup returns the full two-partition snapshot as a downloadable envelope
func ExportBackup(c *gin.Context) {
	env, err := Backup.ExportSnapshot(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="tailorbook_backup.json"`)
	c.JSON(http.StatusOK, env)
}

// ImportBackup replaces local data with an uploaded envelope. The body is
// read whole and validated before anything is written.
func ImportBackup(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Could not read backup file")
		return
	}
	if err := Backup.ImportSnapshot(c.Request.Context(), json.RawMessage(body)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Backup restored successfully"})
}

// UploadCloudBackup replaces the caller's remote backup with a fresh snapshot
func UploadCloudBackup(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := Backup.UploadToRemote(c.Request.Context(), userID.(string)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cloud backup uploaded successfully"})
}

// DownloadCloudBackup restores local data from the caller's remote backup
func DownloadCloudBackup(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := Backup.DownloadFromRemote(c.Request.Context(), userID.(string)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cloud backup restored successfully"})
}
