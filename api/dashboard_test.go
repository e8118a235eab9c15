package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardHandler_GetDashboard(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 历史总支出
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) AS total FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("1250.00"))

	// 按类别汇总，金额降序
	mock.ExpectQuery("SELECT COALESCE\\(categories\\.name, \\?\\) AS label").
		WillReturnRows(sqlmock.NewRows([]string{"label", "total"}).
			AddRow("Food", "700.00").
			AddRow("Uncategorized", "550.00"))

	// 月度趋势：无记录，所有月份应补 0
	mock.ExpectQuery("SELECT DATE_FORMAT\\(date, '%Y-%m-01'\\) AS month").
		WillReturnRows(sqlmock.NewRows([]string{"month", "total"}))

	// 当月支出
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) AS total FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("75.50"))

	// 当月总预算
	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "month", "amount", "category_id", "created_at", "updated_at"}).
			AddRow(1, 1, time.Date(2025, 11, 1, 0, 0, 0, 0, time.Local), "300.00", nil, time.Now(), time.Now()))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/dashboard", NewDashboardHandler().GetDashboard)

	req := httptest.NewRequest("GET", "/dashboard?months=3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})

	assert.Equal(t, float64(1250), data["total_overall"])
	assert.Equal(t, []interface{}{"Food", "Uncategorized"}, data["category_labels"])
	assert.Equal(t, []interface{}{float64(700), float64(550)}, data["category_totals"])

	// 三个月的连续区间，空月份补 0
	assert.Len(t, data["months"].([]interface{}), 3)
	assert.Equal(t, []interface{}{float64(0), float64(0), float64(0)}, data["monthly_totals"])
	assert.Equal(t, time.Now().Format("Jan 2006"), data["months"].([]interface{})[2])

	assert.Equal(t, 75.5, data["month_total"])
	budget := data["budget"].(map[string]interface{})
	assert.Equal(t, true, budget["set"])
	assert.Equal(t, float64(300), budget["amount"])
	assert.Equal(t, false, budget["alert"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardHandler_GetDashboard_InvalidMonths(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/dashboard", NewDashboardHandler().GetDashboard)

	for _, q := range []string{"months=0", "months=-3", "months=abc"} {
		req := httptest.NewRequest("GET", "/dashboard?"+q, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, 400, w.Code, q)
	}
}

func TestDashboardHandler_GetMonthTotal(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) AS total FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("42.00"))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/statistics/month-total", NewDashboardHandler().GetMonthTotal)

	req := httptest.NewRequest("GET", "/statistics/month-total", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(42), data["month_total"])
	require.NoError(t, mock.ExpectationsWereMet())
}
