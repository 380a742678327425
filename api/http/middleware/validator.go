package middleware

import (
	"regexp"
	"strings"

	"data-collection-system/pkg/errors"
	"data-collection-system/pkg/response"

	"github.com/gin-gonic/gin"
)

var stockIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{4,6}$`)

// ValidateStockID rejects a malformed :stock_id path parameter before it
// reaches the façade, mirroring model.StockPeriodKey.Validate's own
// pattern so bad input is caught at the edge instead of one layer in.
func ValidateStockID() gin.HandlerFunc {
	return func(c *gin.Context) {
		stockID := c.Param("stock_id")
		if stockID != "" && !stockIDPattern.MatchString(stockID) {
			response.Error(c, errors.New(errors.ErrCodeInvalidParam, "invalid stock_id format"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SecurityCheck blocks obvious SQL-injection and XSS probes in query
// parameters before they reach any handler.
func SecurityCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checkSQLInjection(c); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if err := checkXSS(c); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func checkSQLInjection(c *gin.Context) error {
	sqlKeywords := []string{
		"select ", "insert ", "update ", "delete ", "drop ", "create ", "alter ",
		"union ", "exec ", "execute ", "sp_", "xp_", "--", "/*", "*/",
	}
	for key, values := range c.Request.URL.Query() {
		for _, value := range values {
			lowerValue := strings.ToLower(value)
			for _, keyword := range sqlKeywords {
				if strings.Contains(lowerValue, keyword) {
					return errors.Newf(errors.ErrCodeInvalidParam, "parameter %s contains disallowed characters", key)
				}
			}
		}
	}
	return nil
}

func checkXSS(c *gin.Context) error {
	xssPatterns := []string{
		"<script", "</script>", "javascript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=",
	}
	for key, values := range c.Request.URL.Query() {
		for _, value := range values {
			lowerValue := strings.ToLower(value)
			for _, pattern := range xssPatterns {
				if strings.Contains(lowerValue, pattern) {
					return errors.Newf(errors.ErrCodeInvalidParam, "parameter %s contains disallowed characters", key)
				}
			}
		}
	}
	return nil
}
