package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"data-collection-system/api/http/handlers"
	"data-collection-system/api/http/middleware"
	"data-collection-system/internal/service"
)

// SetupRoutes wires the façade (C10) into the gin route tree. Every
// route is a GET: force_refresh is how a caller asks for a re-crawl
// instead of a separate verb, per §6.
func SetupRoutes(svc *service.Service) *gin.Engine {
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RequestID())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "mops-cache is running",
		})
	})

	h := handlers.New(svc)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.SecurityCheck())
	{
		statements := v1.Group("/statements/:stock_id")
		statements.Use(middleware.ValidateStockID())
		{
			statements.GET("", h.GetFinancialStatement)
			statements.GET("/xbrl", h.DownloadXBRLZip)
		}

		v1.GET("/revenue", h.GetMonthlyRevenue)

		pledges := v1.Group("/pledges/:stock_id")
		pledges.Use(middleware.ValidateStockID())
		pledges.GET("", h.GetSharePledging)

		dividends := v1.Group("/dividends/:stock_id")
		dividends.Use(middleware.ValidateStockID())
		dividends.GET("", h.GetDividend)

		disclosures := v1.Group("/disclosures/:stock_id")
		disclosures.Use(middleware.ValidateStockID())
		disclosures.GET("", h.GetDisclosure)
	}

	return r
}
