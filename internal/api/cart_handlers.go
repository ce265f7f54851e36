package api

import (
	"net/http"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) fetchCart(c *gin.Context) {
	view, err := h.cart.Fetch(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// addToCart adjusts one line by quantity, which may be negative
func (h *Handler) addToCart(c *gin.Context) {
	var req service.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	view, err := h.cart.Add(c.Request.Context(), currentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeFromCart(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}

	view, err := h.cart.Remove(c.Request.Context(), currentUserID(c), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) clearCart(c *gin.Context) {
	view, err := h.cart.Clear(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) fetchWishlist(c *gin.Context) {
	view, err := h.wishlist.Fetch(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) addToWishlist(c *gin.Context) {
	var req service.AddToWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	view, err := h.wishlist.Add(c.Request.Context(), currentUserID(c), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeFromWishlist(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}

	view, err := h.wishlist.Remove(c.Request.Context(), currentUserID(c), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) moveToCart(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}

	result, err := h.wishlist.MoveToCart(c.Request.Context(), currentUserID(c), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) clearWishlist(c *gin.Context) {
	view, err := h.wishlist.Clear(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
