package routes

import (
	"errors"

	"hotel-inventory-server/services"
	"hotel-inventory-server/utils"

	"github.com/kataras/iris/v12"
)

// handleEngineError maps the engine's error taxonomy onto HTTP. Rule
// violations carry the offending date so clients can explain exactly
// which night failed.
func handleEngineError(err error, ctx iris.Context) {
	switch {
	case errors.Is(err, services.ErrRoomTypeNotFound):
		utils.CreateError(iris.StatusNotFound, "Not Found", err.Error(), ctx)
	case errors.Is(err, services.ErrReservationNotFound):
		utils.CreateError(iris.StatusNotFound, "Not Found", err.Error(), ctx)
	case errors.Is(err, services.ErrInvalidDateRange):
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
	case errors.Is(err, services.ErrOccupancyExceeded):
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
	case errors.Is(err, services.ErrInvalidStatusTransition):
		utils.CreateError(iris.StatusConflict, "Conflict", err.Error(), ctx)
	case errors.Is(err, services.ErrConcurrentConflict):
		utils.CreateError(iris.StatusConflict, "Conflict", err.Error(), ctx)
	default:
		if rule := services.AsDateRuleError(err); rule != nil {
			ctx.StopWithJSON(iris.StatusConflict, iris.Map{
				"status": iris.StatusConflict,
				"title":  "Conflict",
				"detail": rule.Error(),
				"rule":   rule.Rule,
				"date":   rule.Date.Format(utils.DateLayout),
			})
			return
		}
		utils.CreateInternalServerError(ctx)
	}
}
