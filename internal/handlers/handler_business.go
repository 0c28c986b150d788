package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
	"github.com/tradekeeper/trade_keeper_app/internal/middleware"
)

// businessHandler handles HTTP requests related to businesses.
type businessHandler struct {
	businessService portssvc.BusinessSvcFacade
}

func newBusinessHandler(bs portssvc.BusinessSvcFacade) *businessHandler {
	return &businessHandler{businessService: bs}
}

// registerBusinessRoutes registers business CRUD, invite and collaborator
// routes, plus the nested product/sale/expense routes under each business.
func registerBusinessRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newBusinessHandler(services.Business)

	businesses := rg.Group("/businesses")
	{
		businesses.POST("", h.createBusiness)
		businesses.GET("", h.listUserBusinesses)
		businesses.POST("/join", h.redeemInvite)
	}

	businessSpecific := rg.Group("/businesses/:business_id")
	{
		businessSpecific.GET("", h.getBusiness)
		businessSpecific.PUT("", h.updateBusiness)
		businessSpecific.DELETE("", h.deleteBusiness)
		businessSpecific.POST("/invites", h.createInvite)
		businessSpecific.DELETE("/collaborators/:user_id", h.removeCollaborator)
		businessSpecific.POST("/records/clear", h.clearRecords)

		registerProductRoutes(businessSpecific, services.Product)
		registerSaleRoutes(businessSpecific, services.Sale)
		registerExpenseRoutes(businessSpecific, services.Expense)
	}
}

// createBusiness godoc
// @Summary Create a new business
// @Description Creates a business owned by the caller. The device may supply its own business ID.
// @Tags businesses
// @Accept  json
// @Produce  json
// @Param   business body dto.CreateBusinessRequest true "Business details"
// @Success 201 {object} dto.BusinessResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /businesses [post]
func (h *businessHandler) createBusiness(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateBusiness", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	business, err := h.businessService.CreateBusiness(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, err, "create business")
		return
	}
	c.JSON(http.StatusCreated, dto.ToBusinessResponse(business))
}

// listUserBusinesses godoc
// @Summary List the caller's businesses
// @Description Returns every business the caller owns or collaborates on.
// @Tags businesses
// @Produce  json
// @Success 200 {object} dto.ListBusinessesResponse
// @Security BearerAuth
// @Router /businesses [get]
func (h *businessHandler) listUserBusinesses(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	businesses, err := h.businessService.ListUserBusinesses(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "list businesses")
		return
	}
	c.JSON(http.StatusOK, dto.ListBusinessesResponse{Businesses: dto.ToBusinessResponses(businesses)})
}

// getBusiness godoc
// @Summary Get a business
// @Tags businesses
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Success 200 {object} dto.BusinessResponse
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /businesses/{business_id} [get]
func (h *businessHandler) getBusiness(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	business, err := h.businessService.GetBusiness(c.Request.Context(), c.Param("business_id"), userID)
	if err != nil {
		respondServiceError(c, err, "get business")
		return
	}
	c.JSON(http.StatusOK, dto.ToBusinessResponse(business))
}

// updateBusiness godoc
// @Summary Update a business
// @Description Applies the mutable business fields. Owner or active manager only.
// @Tags businesses
// @Accept  json
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Param   business body dto.UpdateBusinessRequest true "Fields to update"
// @Success 200 {object} dto.BusinessResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /businesses/{business_id} [put]
func (h *businessHandler) updateBusiness(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateBusiness", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	business, err := h.businessService.UpdateBusiness(c.Request.Context(), c.Param("business_id"), req, userID)
	if err != nil {
		respondServiceError(c, err, "update business")
		return
	}
	c.JSON(http.StatusOK, dto.ToBusinessResponse(business))
}

// deleteBusiness godoc
// @Summary Delete a business
// @Description Removes the business and all of its records. Owner only.
// @Tags businesses
// @Param   business_id path string true "Business ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /businesses/{business_id} [delete]
func (h *businessHandler) deleteBusiness(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.businessService.DeleteBusiness(c.Request.Context(), c.Param("business_id"), userID); err != nil {
		respondServiceError(c, err, "delete business")
		return
	}
	c.Status(http.StatusNoContent)
}

// clearRecords godoc
// @Summary Clear all records under a business
// @Description Removes every product, sale and expense while keeping the business. Owner only.
// @Tags businesses
// @Param   business_id path string true "Business ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /businesses/{business_id}/records/clear [post]
func (h *businessHandler) clearRecords(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.businessService.ClearBusinessRecords(c.Request.Context(), c.Param("business_id"), userID); err != nil {
		respondServiceError(c, err, "clear business records")
		return
	}
	c.Status(http.StatusNoContent)
}

// createInvite godoc
// @Summary Mint a collaborator invite code
// @Description Creates a short-lived invite code for joining as a manager. Owner only.
// @Tags businesses
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Success 201 {object} dto.InviteResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /businesses/{business_id}/invites [post]
func (h *businessHandler) createInvite(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	invite, err := h.businessService.CreateInvite(c.Request.Context(), c.Param("business_id"), userID)
	if err != nil {
		respondServiceError(c, err, "create invite")
		return
	}
	c.JSON(http.StatusCreated, invite)
}

// redeemInvite godoc
// @Summary Join a business with an invite code
// @Description Attaches the caller as an active manager collaborator.
// @Tags businesses
// @Accept  json
// @Produce  json
// @Param   invite body dto.RedeemInviteRequest true "Invite code"
// @Success 200 {object} dto.BusinessResponse
// @Failure 404 {object} map[string]string "Unknown or expired code"
// @Security BearerAuth
// @Router /businesses/join [post]
func (h *businessHandler) redeemInvite(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RedeemInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RedeemInvite", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	business, err := h.businessService.RedeemInvite(c.Request.Context(), req.InviteCode, userID)
	if err != nil {
		respondServiceError(c, err, "redeem invite")
		return
	}
	c.JSON(http.StatusOK, dto.ToBusinessResponse(business))
}

// removeCollaborator godoc
// @Summary Remove a collaborator from a business
// @Description Detaches the collaborator; their devices purge local state on the resulting business_updated event. Owner only.
// @Tags businesses
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Param   user_id path string true "Collaborator user ID"
// @Success 200 {object} dto.BusinessResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /businesses/{business_id}/collaborators/{user_id} [delete]
func (h *businessHandler) removeCollaborator(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	business, err := h.businessService.RemoveCollaborator(c.Request.Context(), c.Param("business_id"), c.Param("user_id"), userID)
	if err != nil {
		respondServiceError(c, err, "remove collaborator")
		return
	}
	c.JSON(http.StatusOK, dto.ToBusinessResponse(business))
}
