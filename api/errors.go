package api

import (
	"errors"
	"fmt"
	"net/http"

	errorsmod "cosmossdk.io/errors"
	"github.com/gin-gonic/gin"

	oracletypes "github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

// httpStatus maps an oracle error onto an HTTP status code.
func httpStatus(err error) int {
	switch {
	case oracletypes.ErrMalformedMessage.Is(err), oracletypes.ErrInvalidKeyEncoding.Is(err):
		return http.StatusBadRequest
	case oracletypes.ErrInvalidSignature.Is(err):
		return http.StatusUnauthorized
	case oracletypes.ErrUnauthorized.Is(err):
		return http.StatusForbidden
	case oracletypes.ErrNonceReused.Is(err):
		return http.StatusConflict
	case oracletypes.ErrNotInstantiated.Is(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its registered code and recovery hint.
func respondError(c *gin.Context, err error) {
	status := httpStatus(err)
	resp := ErrorResponse{Error: err.Error()}

	if codespace, code, _ := errorsmod.ABCIInfo(err, false); codespace == oracletypes.ModuleName {
		resp.Code = fmt.Sprintf("%s:%d", codespace, code)
		resp.Recovery = oracletypes.GetRecoverySuggestion(err)
	}
	var withRecovery *oracletypes.ErrorWithRecovery
	if errors.As(err, &withRecovery) {
		resp.Recovery = withRecovery.Recovery
	}
	if status == http.StatusInternalServerError {
		resp.Error = "Internal server error"
		resp.Details = err.Error()
	}

	c.JSON(status, resp)
}
