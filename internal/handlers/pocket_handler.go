package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "saku/internal/errors"
	"saku/internal/services"
)

// PocketHandler handles pocket-related requests.
type PocketHandler struct {
	pocketService services.PocketServicer
	auditService  services.AuditServicer
}

// NewPocketHandler creates a new PocketHandler.
func NewPocketHandler(pocketService services.PocketServicer, auditService services.AuditServicer) *PocketHandler {
	return &PocketHandler{pocketService: pocketService, auditService: auditService}
}

// CreatePocketRequest represents the request payload for creating a pocket.
type CreatePocketRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// RenamePocketRequest represents the request payload for renaming a pocket.
type RenamePocketRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// SharePocketRequest represents the request payload for sharing a pocket.
type SharePocketRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreatePocket handles the creation of a new pocket.
// @Summary     Create a pocket
// @Description Create a new expense pocket owned by the authenticated user
// @Tags        pockets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePocketRequest true "Pocket details"
// @Success     201 {object} models.Pocket "Pocket created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate pocket name"
// @Router      /pockets [post]
func (h *PocketHandler) CreatePocket(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePocketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	pocket, err := h.pocketService.CreatePocket(userID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_POCKET", "pocket", pocket.ID, c.ClientIP(),
		map[string]interface{}{"name": pocket.Name})

	c.JSON(http.StatusCreated, gin.H{"pocket": pocket})
}

// GetPockets handles listing pockets for the authenticated user.
// @Summary     Get pockets
// @Description Get the pockets the user owns plus those shared with them
// @Tags        pockets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.PocketView "Pockets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /pockets [get]
func (h *PocketHandler) GetPockets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pockets, err := h.pocketService.GetUserPockets(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pockets": pockets})
}

// RenamePocket handles renaming a pocket.
// @Summary     Rename pocket
// @Description Rename a pocket; owner only
// @Tags        pockets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Pocket ID"
// @Param       request body RenamePocketRequest true "New name"
// @Success     200 {object} models.Pocket "Renamed pocket"
// @Failure     400 {object} ErrorResponse "Invalid input or pocket ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the pocket owner"
// @Failure     404 {object} ErrorResponse "Pocket not found"
// @Router      /pockets/{id} [put]
func (h *PocketHandler) RenamePocket(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pocketID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RenamePocketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	pocket, err := h.pocketService.RenamePocket(userID, pocketID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RENAME_POCKET", "pocket", pocket.ID, c.ClientIP(),
		map[string]interface{}{"name": pocket.Name})

	c.JSON(http.StatusOK, gin.H{"pocket": pocket})
}

// DeletePocket handles deleting a pocket.
// @Summary     Delete pocket
// @Description Delete a pocket, revoking memberships and detaching its invoices; owner only
// @Tags        pockets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pocket ID"
// @Success     200 {object} map[string]string "Deletion confirmed"
// @Failure     400 {object} ErrorResponse "Invalid pocket ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the pocket owner"
// @Failure     404 {object} ErrorResponse "Pocket not found"
// @Router      /pockets/{id} [delete]
func (h *PocketHandler) DeletePocket(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pocketID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.pocketService.DeletePocket(userID, pocketID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_POCKET", "pocket", pocketID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Pocket deleted"})
}

// GetMembers handles listing a pocket's members.
// @Summary     Get pocket members
// @Description List a pocket's members, owner first; visible to the owner and members
// @Tags        pockets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pocket ID"
// @Success     200 {array} services.MemberView "Members"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "No access to this pocket"
// @Failure     404 {object} ErrorResponse "Pocket not found"
// @Router      /pockets/{id}/members [get]
func (h *PocketHandler) GetMembers(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pocketID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	members, err := h.pocketService.GetMembers(userID, pocketID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// SharePocket handles granting another user access to a pocket.
// @Summary     Share pocket
// @Description Grant the user with the given email access to the pocket; owner only
// @Tags        pockets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Pocket ID"
// @Param       request body SharePocketRequest true "Member email"
// @Success     201 {object} services.MemberView "Member added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the pocket owner"
// @Failure     404 {object} ErrorResponse "Pocket or user not found"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Router      /pockets/{id}/members [post]
func (h *PocketHandler) SharePocket(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pocketID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SharePocketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.pocketService.SharePocket(userID, pocketID, req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SHARE_POCKET", "pocket", pocketID, c.ClientIP(),
		map[string]interface{}{"member_user_id": member.UserID})

	c.JSON(http.StatusCreated, gin.H{"member": member})
}

// RemoveMember handles revoking a member's access to a pocket.
// @Summary     Remove pocket member
// @Description Revoke a member's access to the pocket; owner only
// @Tags        pockets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id     path string true "Pocket ID"
// @Param       userId path string true "Member user ID"
// @Success     200 {object} map[string]string "Removal confirmed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the pocket owner"
// @Failure     404 {object} ErrorResponse "Pocket or member not found"
// @Router      /pockets/{id}/members/{userId} [delete]
func (h *PocketHandler) RemoveMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pocketID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	memberUserID := c.Param("userId")
	if memberUserID == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid userId"))
		return
	}

	if err := h.pocketService.RemoveMember(userID, pocketID, memberUserID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REMOVE_MEMBER", "pocket", pocketID, c.ClientIP(),
		map[string]interface{}{"member_user_id": memberUserID})

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}
