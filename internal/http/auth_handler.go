package http

import (
	"encoding/json"
	"errors"
	"net/http"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/vhtruong/product-catalog/internal/apperr"
	"github.com/vhtruong/product-catalog/internal/auth"
	"github.com/vhtruong/product-catalog/pkg/validator"
)

type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type authHandler struct {
	responder

	credentials *auth.CredentialStore
	tokenMgr    *auth.TokenManager
	validator   validator.Validator
}

func newAuthHandler(
	credentials *auth.CredentialStore,
	tokenMgr *auth.TokenManager,
	v validator.Validator,
	re responder,
) *authHandler {
	return &authHandler{
		responder:   re,
		credentials: credentials,
		tokenMgr:    tokenMgr,
		validator:   v,
	}
}

// IssueToken exchanges username/password credentials for a signed JWT
// carrying the caller's roles.
func (h *authHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, apperr.MalformedRequestErr.WrapParent(err))
		return
	}

	if err := h.validator.Validate(req); err != nil {
		var vErrs govalidator.ValidationErrors
		if errors.As(err, &vErrs) {
			h.respondError(w, r, apperr.ValidationErr.
				WithFields(validator.FieldErrors(vErrs)).
				WrapParent(err))
			return
		}
		h.respondError(w, r, err)
		return
	}

	principal, err := h.credentials.Authenticate(req.Username, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	token, err := h.tokenMgr.Generate(principal.Subject, principal.Roles)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenMgr.Expiration().Seconds()),
	})
}
