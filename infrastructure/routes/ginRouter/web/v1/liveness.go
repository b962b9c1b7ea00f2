package routev1

import (
	"github.com/gin-gonic/gin"
	apperrors "prism.io/application/appErrors"
	"prism.io/application/controller"
	"prism.io/application/controller/dto"
	"prism.io/application/interfaces"
)

func LivenessRouter(router *gin.RouterGroup) {
	livenessRouter := router.Group("/liveness")
	{
		livenessRouter.POST("/session", func(ctx *gin.Context) {
			appContext := ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
			var body dto.CreateSessionRequest
			if err := ctx.ShouldBindJSON(&body); err != nil {
				apperrors.ErrorProcessingPayload(ctx)
				return
			}
			controller.CreateLivenessSession(&interfaces.ApplicationContext[dto.CreateSessionRequest]{
				Ctx:      ctx,
				Body:     &body,
				DeviceID: appContext.DeviceID,
			})
		})

		livenessRouter.POST("/session/:sessionID/frame", func(ctx *gin.Context) {
			appContext := ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
			var body dto.SubmitFrameRequest
			if err := ctx.ShouldBindJSON(&body); err != nil {
				apperrors.ErrorProcessingPayload(ctx)
				return
			}
			controller.SubmitFrame(&interfaces.ApplicationContext[dto.SubmitFrameRequest]{
				Ctx:      ctx,
				Body:     &body,
				DeviceID: appContext.DeviceID,
			})
		})

		livenessRouter.GET("/session/:sessionID/result", func(ctx *gin.Context) {
			appContext := ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
			controller.GetSessionResult(&interfaces.ApplicationContext[any]{
				Ctx:      ctx,
				DeviceID: appContext.DeviceID,
			})
		})

		livenessRouter.POST("/session/:sessionID/reset", func(ctx *gin.Context) {
			appContext := ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
			controller.ResetSession(&interfaces.ApplicationContext[any]{
				Ctx:      ctx,
				DeviceID: appContext.DeviceID,
			})
		})

		livenessRouter.DELETE("/session/:sessionID", func(ctx *gin.Context) {
			appContext := ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
			controller.EndLivenessSession(&interfaces.ApplicationContext[any]{
				Ctx:      ctx,
				DeviceID: appContext.DeviceID,
			})
		})
	}
}
