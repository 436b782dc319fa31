package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KMK-tech-v0/fuel/internal/application"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/middleware"
)

func recordMovementHandler(service *application.MovementCoordinator, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.RecordMovementCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			responder.RespondBadRequest("invalid request body: " + err.Error())
			return
		}

		result, err := service.RecordMovement(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

func recordPriceHandler(service *application.PriceTracker, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.RecordPriceCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			responder.RespondBadRequest("invalid request body: " + err.Error())
			return
		}

		result, err := service.RecordPrice(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

func getStockHandler(service *application.StockService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var query application.GetStockQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			responder.RespondBadRequest("invalid query: " + err.Error())
			return
		}

		stock, err := service.GetStock(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, stock)
	}
}

func reconcileHandler(service *application.Reconciler, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := service.Reconcile(c.Request.Context())
		if err != nil {
			middleware.NewErrorResponder(c, logger.Logger).RespondWithError(err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// listHandler serves a read that takes no parameters. Empty results encode as [].
func listHandler[T any](list func(ctx context.Context) ([]T, error), logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := list(c.Request.Context())
		if err != nil {
			middleware.NewErrorResponder(c, logger.Logger).RespondWithError(err)
			return
		}
		if rows == nil {
			rows = []T{}
		}
		c.JSON(http.StatusOK, rows)
	}
}
