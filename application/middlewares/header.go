package middlewares

import (
	"errors"

	apperrors "prism.io/application/appErrors"
	"prism.io/application/interfaces"
	"prism.io/infrastructure/useragent"
)

func UserAgentMiddleware(ctx *interfaces.ApplicationContext[any]) (*interfaces.ApplicationContext[any], bool) {
	agent := ctx.GetHeader("User-Agent")
	if agent == "" {
		apperrors.ClientError(ctx.Ctx, "user agent header missing", []error{errors.New("user agent header missing")})
		return nil, false
	}
	agentDetails := useragent.ParseUserAgent(agent)
	if agentDetails.Bot {
		apperrors.ClientError(ctx.Ctx, "automated clients are not allowed", nil)
		return nil, false
	}
	ctx.UserAgent = agent
	deviceID := ctx.GetHeader("X-Device-Id")
	if deviceID == "" {
		apperrors.ClientError(ctx.Ctx, "X-Device-Id header missing", []error{errors.New("device id header missing")})
		return nil, false
	}
	ctx.DeviceID = deviceID
	return ctx, true
}
