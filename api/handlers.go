package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	oracletypes "github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

// handleCheckPrice verifies a single signed price message.
func (s *Server) handleCheckPrice(c *gin.Context) {
	var req CheckPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Details: err.Error(),
		})
		return
	}

	resp, err := s.backend.CheckPriceInput(c.Request.Context(), &oracletypes.MsgCheckPriceInput{
		Message:   req.Message,
		Signature: req.Signature,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPriceResponse(resp.PriceMessage))
}

// handleCheckPrices verifies a batch signed as a whole.
func (s *Server) handleCheckPrices(c *gin.Context) {
	var req CheckPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Details: err.Error(),
		})
		return
	}

	resp, err := s.backend.CheckPricesInput(c.Request.Context(), &oracletypes.MsgCheckPricesInput{
		Message:   req.Message,
		Signature: req.Signature,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	prices := make([]PriceResponse, len(resp.PriceMessages))
	for i, msg := range resp.PriceMessages {
		prices[i] = newPriceResponse(msg)
	}
	c.JSON(http.StatusOK, CheckPricesResponse{Prices: prices})
}

// handleStatus returns the authorized key and used nonce count.
func (s *Server) handleStatus(c *gin.Context) {
	status, err := s.backend.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// handleGetNonce reports whether a nonce has been consumed.
func (s *Server) handleGetNonce(c *gin.Context) {
	nonce, err := strconv.ParseUint(c.Param("nonce"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid nonce",
			Details: err.Error(),
		})
		return
	}

	used, err := s.backend.IsNonceUsed(c.Request.Context(), nonce)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NonceResponse{Nonce: nonce, Used: used})
}

// handleRotatePublicKey replaces the authorized key. Reached only through
// AuthMiddleware.
func (s *Server) handleRotatePublicKey(c *gin.Context) {
	var req RotateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Details: err.Error(),
		})
		return
	}

	if err := s.backend.RotatePublicKey(c.Request.Context(), req.PublicKey); err != nil {
		respondError(c, err)
		return
	}

	s.logger.Info("public key rotated via API", "subject", c.GetString("subject"), "public_key", req.PublicKey)
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Public key rotated",
		Data:    gin.H{"public_key": req.PublicKey},
	})
}
