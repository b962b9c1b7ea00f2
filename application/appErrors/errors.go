package apperrors

import (
	"net/http"

	"prism.io/infrastructure/logger"
	server_response "prism.io/infrastructure/serverResponse"
)

func NotFoundError(ctx interface{}, message string) {
	server_response.Responder.Respond(ctx, http.StatusNotFound, message, nil, nil)
}

func ValidationFailedError(ctx interface{}, errMessages *[]error) {
	server_response.Responder.Respond(ctx, http.StatusUnprocessableEntity, "Payload validation failed 🙄", nil, *errMessages)
}

func ClientError(ctx interface{}, message string, errs []error) {
	server_response.Responder.Respond(ctx, http.StatusBadRequest, message, nil, errs)
}

func EntityAlreadyExistsError(ctx interface{}, message string) {
	server_response.Responder.Respond(ctx, http.StatusConflict, message, nil, nil)
}

func ErrorProcessingPayload(ctx interface{}) {
	server_response.Responder.Respond(ctx, http.StatusBadRequest, "abnormal payload passed", nil, nil)
}

func UnknownError(ctx interface{}, err error) {
	logger.Error("something went wrong", logger.LoggerOptions{
		Key:  "error",
		Data: err,
	})
	server_response.Responder.Respond(ctx, http.StatusInternalServerError, "something went wrong on our end. our engineers have been notified", nil, nil)
}
