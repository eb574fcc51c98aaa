package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/geomux/geomux/model"
	"github.com/geomux/geomux/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSeedDefaultSourcesIsIdempotent(t *testing.T) {
	db := utils.CreateTempDB(t)

	created, err := SeedDefaultSources(db)
	assert.Nil(t, err)
	assert.Equal(t, len(DefaultSources), created)

	created, err = SeedDefaultSources(db)
	assert.Nil(t, err)
	assert.Equal(t, 0, created)

	var count int64
	assert.Nil(t, db.Model(&model.Source{}).Count(&count).Error)
	assert.Equal(t, int64(len(DefaultSources)), count)
}

func TestPingEndpoint(t *testing.T) {
	db := utils.CreateTempDB(t)
	router := NewRouter(NewHandler(db, nil, nil, nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

func TestSeedEndpointAndListSources(t *testing.T) {
	db := utils.CreateTempDB(t)
	router := NewRouter(NewHandler(db, nil, nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/seed", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/sources", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var sources []model.Source
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &sources))
	assert.Equal(t, len(DefaultSources), len(sources))
}

func TestFetchEndpointRejectsUnknownType(t *testing.T) {
	db := utils.CreateTempDB(t)
	router := NewRouter(NewHandler(db, nil, nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/fetch?type=carrier_pigeon", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCleanupRelevanceEndpointValidatesThreshold(t *testing.T) {
	db := utils.CreateTempDB(t)
	router := NewRouter(NewHandler(db, nil, nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/cleanup/relevance?threshold=1.5", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
