package router

import (
	"credit-scoring-service/internal/app/handlers"
	"credit-scoring-service/internal/app/middleware"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
)

const serviceName = "credit-scoring-service"

// SetupRouter wires the HTTP surface over the already-constructed handlers.
func SetupRouter(
	scoringHandler *handlers.ScoringHandler,
	loansHandler *handlers.LoansHandler,
	systemHandler *handlers.SystemHandler,
) *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery())

	meter := otel.Meter(serviceName)
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.NewMetricMiddleware(meter))
	r.Use(middleware.AttachRequestDetails())

	api := r.Group("/CreditScoring")
	{
		api.POST("/Score", scoringHandler.Score)
		api.POST("/EligibilityCheck", scoringHandler.EligibilityCheck)
		api.GET("/Borrower/:nid", scoringHandler.Borrower)

		api.POST("/LoanRequest", loansHandler.LoanRequest)
		api.POST("/Borrower", loansHandler.AddBorrower)
		api.GET("/Loans/:nid", loansHandler.Loans)
		api.GET("/Transaction/:hash", loansHandler.Transaction)

		api.GET("/CacheStats", systemHandler.CacheStats)
		api.GET("/Startup", systemHandler.Startup)
		api.GET("/Events", systemHandler.RecentEvents)
		api.GET("/Health", systemHandler.Health)
	}

	return r
}
