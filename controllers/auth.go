package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tailorbook-backend/config"
	"tailorbook-backend/models"
	"tailorbook-backend/storage"
	"tailorbook-backend/utils"
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AccountSettingsInput struct {
	AutoBackup *bool `json:"autoBackup"`
}

// approvalCache is the last-known-good approval answer, kept in the local
// store so the check still works offline.
type approvalCache struct {
	Status    bool  `json:"status"`
	Timestamp int64 `json:"timestamp"`
}

const approvalCacheTTL = 24 * time.Hour

func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var existingUser models.User
	result := config.DB.Where("email = ?", input.Email).First(&existingUser)
	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	newUser := models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Name:     input.Name,
		Password: input.Password, // hashed in BeforeCreate hook
		IsActive: true,
	}
	if err := config.DB.Create(&newUser).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := utils.GenerateToken(newUser.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful, awaiting approval",
		"token":   token,
		"user": gin.H{
			"id":         newUser.ID,
			"email":      newUser.Email,
			"name":       newUser.Name,
			"isApproved": newUser.IsApproved,
		},
	})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	now := time.Now()
	config.DB.Model(&user).Update("last_login", &now)

	token, err := utils.GenerateToken(user.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"name":       user.Name,
			"isApproved": user.IsApproved,
			"autoBackup": user.AutoBackup,
		},
	})
}

func Me(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"phone":      user.Phone,
		"isApproved": user.IsApproved,
		"autoBackup": user.AutoBackup,
	})
}

// UpdateAccountSettings toggles per-user flags (currently auto cloud backup)
func UpdateAccountSettings(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input AccountSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.AutoBackup != nil {
		if err := config.DB.Model(&models.User{}).Where("id = ?", userID).
			Update("auto_backup", *input.AutoBackup).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update settings")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings updated"})
}

// ApprovedOnly gates the /api group on account approval. A fresh answer from
// the users table refreshes the local cache; when the lookup fails, the
// last-known-good cached answer (within 24h) is used so the shop keeps
// working offline.
func ApprovedOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userId")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
			return
		}

		var user models.User
		err := config.DB.First(&user, "id = ?", userID).Error
		if err == nil {
			cache := approvalCache{Status: user.IsApproved, Timestamp: time.Now().UnixMilli()}
			if cacheErr := Store.Set(c.Request.Context(), storage.KeyApprovalCache, cache); cacheErr != nil {
				log.Printf("auth: failed to cache approval status: %v", cacheErr)
			}
			if !user.IsApproved {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account is awaiting approval"})
				return
			}
			c.Next()
			return
		}

		// Lookup failed; fall back to the cached answer if it is fresh.
		var cache approvalCache
		found, cacheErr := storage.GetJSON(c.Request.Context(), Store, storage.KeyApprovalCache, &cache)
		if cacheErr == nil && found &&
			time.Since(time.UnixMilli(cache.Timestamp)) < approvalCacheTTL {
			if !cache.Status {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account is awaiting approval"})
				return
			}
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Approval status unavailable, please retry"})
	}
}
