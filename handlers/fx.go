package handlers

import (
	"errors"
	"net/http"
	"strings"

	"tripledger-backend/config"
	"tripledger-backend/models"
	"tripledger-backend/services"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/fx/rates?date=YYYY-MM-DD&currency=USD[&base=KRW]
func GetExchangeRate(c *gin.Context) {
	date, err := utils.ParseDate(c.Query("date"))
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	currency := strings.ToUpper(c.Query("currency"))
	if len(currency) != 3 {
		utils.BadRequest(c, "currency must be a 3-letter ISO code")
		return
	}

	base := strings.ToUpper(c.DefaultQuery("base", config.AppConfig.BaseCurrency))
	if len(base) != 3 {
		utils.BadRequest(c, "base must be a 3-letter ISO code")
		return
	}

	rate, err := services.FX().GetRate(c.Request.Context(), date, currency, base)
	if err != nil {
		if errors.Is(err, services.ErrRateUnavailable) {
			utils.ServiceUnavailable(c, err.Error())
			return
		}
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", models.ExchangeRateResponse{
		Date:         date.Format("2006-01-02"),
		Currency:     currency,
		BaseCurrency: base,
		Rate:         rate,
	})
}
