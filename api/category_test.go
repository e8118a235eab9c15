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

func TestCategoryHandler_List(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `categories` ORDER BY name").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow(4, "Bills", time.Now(), time.Now()).
			AddRow(1, "Food", time.Now(), time.Now()).
			AddRow(2, "Transport", time.Now(), time.Now()))

	router := gin.New()
	router.GET("/categories", NewCategoryHandler().List)

	req := httptest.NewRequest("GET", "/categories", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	list := resp["data"].([]interface{})
	require.Len(t, list, 3)
	assert.Equal(t, "Bills", list[0].(map[string]interface{})["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateCategory_CreatesMissing(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs("Coffee").
		WillReturnRows(sqlmock.NewRows([]string{}))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	cat, err := getOrCreateCategory("Coffee")
	require.NoError(t, err)
	assert.Equal(t, uint(7), cat.ID)
	assert.Equal(t, "Coffee", cat.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateCategory_TrimsAndFindsExisting(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs("Food").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow(1, "Food", time.Now(), time.Now()))

	cat, err := getOrCreateCategory("  Food  ")
	require.NoError(t, err)
	assert.Equal(t, uint(1), cat.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateCategory_EmptyName(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	_, err := getOrCreateCategory("   ")
	assert.Error(t, err)
}
