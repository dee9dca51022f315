package apperr

import "github.com/vhtruong/product-catalog/pkg/problem"

const (
	ProductNotFoundCode    = "PRODUCT_NOT_FOUND"
	DuplicateSkuCode       = "DUPLICATE_SKU"
	ValidationErrorCode    = "VALIDATION_FAILED"
	MalformedRequestCode   = "MALFORMED_REQUEST"
	UnauthorizedCode       = "UNAUTHORIZED"
	ForbiddenCode          = "FORBIDDEN"
	InvalidCredentialsCode = "INVALID_CREDENTIALS"
)

var (
	ProductNotFoundErr    = problem.NewNotFound(ProductNotFoundCode, "product not found")
	DuplicateSkuErr       = problem.NewConflict(DuplicateSkuCode, "product sku already exists")
	ValidationErr         = problem.NewValidationFailed(ValidationErrorCode, "request validation failed")
	MalformedRequestErr   = problem.NewBadRequest(MalformedRequestCode, "malformed request")
	UnauthorizedErr       = problem.NewUnauthorized(UnauthorizedCode, "authentication required")
	ForbiddenErr          = problem.NewForbidden(ForbiddenCode, "insufficient role for this operation")
	InvalidCredentialsErr = problem.NewUnauthorized(InvalidCredentialsCode, "invalid username or password")
)
