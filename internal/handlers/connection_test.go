package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"match-service/internal/mocks"
	"match-service/internal/models"
	"match-service/internal/repositories"
)

func setupConnectionRouter(handler *ConnectionHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	})
	r.GET("/connections", handler.List)
	r.PATCH("/connections/:connection_id/note", handler.UpdateNote)
	return r
}

func TestListConnectionsSuccess(t *testing.T) {
	connRepo := new(mocks.ConnectionRepositoryMock)
	router := setupConnectionRouter(NewConnectionHandler(connRepo, nil))

	connRepo.On("ListConnections", mock.Anything, "u1").Return([]models.Connection{
		{ID: 3, UserID: "u1", PartnerID: "u2", SharedSkills: pq.StringArray{"React"}},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/connections", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Connections []models.Connection `json:"connections"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Connections, 1)
	assert.Equal(t, "u2", resp.Connections[0].PartnerID)
	connRepo.AssertExpectations(t)
}

func TestListConnectionsRepoError(t *testing.T) {
	connRepo := new(mocks.ConnectionRepositoryMock)
	router := setupConnectionRouter(NewConnectionHandler(connRepo, nil))

	connRepo.On("ListConnections", mock.Anything, "u1").
		Return(([]models.Connection)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/connections", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	connRepo.AssertExpectations(t)
}

func TestUpdateNoteSuccess(t *testing.T) {
	connRepo := new(mocks.ConnectionRepositoryMock)
	router := setupConnectionRouter(NewConnectionHandler(connRepo, nil))

	connRepo.On("UpdateConnectionNote", mock.Anything, 7, "u1", "met at the roastery").Return(nil).Once()

	body := bytes.NewBufferString(`{"note":"met at the roastery"}`)
	req := httptest.NewRequest(http.MethodPatch, "/connections/7/note", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	connRepo.AssertExpectations(t)
}

func TestUpdateNoteNotOwned(t *testing.T) {
	connRepo := new(mocks.ConnectionRepositoryMock)
	router := setupConnectionRouter(NewConnectionHandler(connRepo, nil))

	connRepo.On("UpdateConnectionNote", mock.Anything, 7, "u1", "x").
		Return(repositories.ErrConnectionNotFound).Once()

	body := bytes.NewBufferString(`{"note":"x"}`)
	req := httptest.NewRequest(http.MethodPatch, "/connections/7/note", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	connRepo.AssertExpectations(t)
}

func TestUpdateNoteBadID(t *testing.T) {
	connRepo := new(mocks.ConnectionRepositoryMock)
	router := setupConnectionRouter(NewConnectionHandler(connRepo, nil))

	body := bytes.NewBufferString(`{"note":"x"}`)
	req := httptest.NewRequest(http.MethodPatch, "/connections/abc/note", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	connRepo.AssertNotCalled(t, "UpdateConnectionNote", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
