package response

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const StatusError = "error"

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Error:   "Empty Request Body",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Error:   "Bad Request",
	Message: "The request body is malformed. Please check your data.",
}

var ResourceNotFoundResponse = Response{
	Status:  StatusError,
	Error:   "Resource Not Found",
	Message: "The requested resource was not found.",
}

var LinkExpiredResponse = Response{
	Status:  StatusError,
	Error:   "Link Expired",
	Message: "The short link has expired and can no longer be resolved.",
}

var PasswordRequiredResponse = Response{
	Status:  StatusError,
	Error:   "Password Required",
	Message: "The short link is password protected. Please provide a password.",
}

var PasswordIncorrectResponse = Response{
	Status:  StatusError,
	Error:   "Password Incorrect",
	Message: "The provided password is incorrect.",
}

var ShortCodeConflictResponse = Response{
	Status:  StatusError,
	Error:   "Short Code Conflict",
	Message: "A different URL already uses this short code.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Error:   "Server Error",
	Message: "An internal server error occurred. Please try again later.",
}

type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
}

// ValidationErrorResponse builds an error response from validation errors,
// listing one detail per invalid field.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:  StatusError,
		Error:   "Validation Error",
		Message: "The request contains invalid data.",
	}

	if vErrs, ok := err.(validator.ValidationErrors); ok {
		for _, vErr := range vErrs {
			resp.Details = append(resp.Details, fmt.Sprintf("Invalid value for %q field.", vErr.Field()))
		}
	}

	return resp
}
