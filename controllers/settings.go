package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tailorbook-backend/models"
	"tailorbook-backend/storage"
	"tailorbook-backend/utils"
)

// GetShopInfo returns the shop profile (empty profile when never set)
func GetShopInfo(c *gin.Context) {
	var info models.ShopInfo
	if _, err := storage.GetJSON(c.Request.Context(), Store, storage.KeyShopInfo, &info); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// UpdateShopInfo replaces the shop profile
func UpdateShopInfo(c *gin.Context) {
	var input models.ShopInfo
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if err := Store.Set(c.Request.Context(), storage.KeyShopInfo, input); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, input)
}

// GetMeasurementLabels returns the configurable measurement field set,
// seeding the defaults on first read.
func GetMeasurementLabels(c *gin.Context) {
	var labels []models.MeasurementLabel
	found, err := storage.GetJSON(c.Request.Context(), Store, storage.KeyMeasurementLabels, &labels)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !found {
		labels = models.DefaultMeasurementLabels()
		if err := Store.Set(c.Request.Context(), storage.KeyMeasurementLabels, labels); err != nil {
			respondServiceError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, labels)
}

// UpdateMeasurementLabels replaces the measurement field set. Fields may be
// renamed or added; keys must stay unique because measurements and style
// details are keyed by them.
func UpdateMeasurementLabels(c *gin.Context) {
	var labels []models.MeasurementLabel
	if err := c.ShouldBindJSON(&labels); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	seen := map[string]bool{}
	for _, l := range labels {
		if l.Key == "" || l.Label == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Every measurement field needs a key and a label")
			return
		}
		if seen[l.Key] {
			utils.RespondWithError(c, http.StatusBadRequest, "Duplicate measurement field key: "+l.Key)
			return
		}
		seen[l.Key] = true
	}

	if err := Store.Set(c.Request.Context(), storage.KeyMeasurementLabels, labels); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}
