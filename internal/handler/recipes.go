package handler

import (
	"net/http"

	"github.com/janesh-web3/RMS-demo-sub001/internal/apierror"
	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RecipesHandler struct{ svc service.RecipeService }

func NewRecipesHandler(svc service.RecipeService) *RecipesHandler {
	return &RecipesHandler{svc: svc}
}

func (h *RecipesHandler) CreateMenuItem(c *gin.Context) {
	var req dto.CreateMenuItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateMenuItem(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RecipesHandler) GetMenuItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipesHandler) ListMenuItems(c *gin.Context) {
	resp, err := h.svc.ListMenuItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("could not list menu items"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetRecipe replaces the full ingredient list of a menu item.
func (h *RecipesHandler) SetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.SetRecipeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetRecipe(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
