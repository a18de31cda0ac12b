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

	"match-service/internal/matching"
	"match-service/internal/mocks"
	"match-service/internal/models"
	"match-service/internal/repositories"
	"match-service/internal/session"
)

func setupSessionRouter(handler *SessionHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	})
	r.POST("/matches/score", handler.ScorePair)
	r.POST("/sessions/invite", handler.Invite)
	r.POST("/sessions/reveal", handler.Reveal)
	r.POST("/sessions/close-reveal", handler.CloseReveal)
	r.POST("/sessions/end", handler.End)
	r.POST("/sessions/reset", handler.Reset)
	r.GET("/sessions/current", handler.Current)
	return r
}

func newSessionHandler(presenceRepo *mocks.PresenceRepositoryMock) *SessionHandler {
	scorer := matching.NewScorer(1)
	sessions := session.NewManager(scorer, nil, new(mocks.ConnectionRepositoryMock), nil, session.Config{})
	return NewSessionHandler(presenceRepo, scorer, sessions, nil)
}

func selfRecord() models.PresenceRecord {
	return models.PresenceRecord{
		UserID:     "u1",
		Skills:     pq.StringArray{"React", "Figma"},
		LabID:      labPtr("roastery"),
		Visibility: models.VisibilityOpen,
	}
}

func partnerRecord(visibility models.Visibility) models.PresenceRecord {
	return models.PresenceRecord{
		UserID:      "u2",
		DisplayName: "Ben",
		Skills:      pq.StringArray{"React", "Branding"},
		LabID:       labPtr("roastery"),
		Visibility:  visibility,
	}
}

func TestScorePairSuccess(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepositoryMock)
	router := setupSessionRouter(newSessionHandler(presenceRepo))

	presenceRepo.On("GetByUser", mock.Anything, "u1").Return(selfRecord(), nil).Once()
	presenceRepo.On("GetByUser", mock.Anything, "u2").Return(partnerRecord(models.VisibilityOpen), nil).Once()

	body := bytes.NewBufferString(`{"partner_id":"u2"}`)
	req := httptest.NewRequest(http.MethodPost, "/matches/score", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result models.CompatibilityResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 45, result.Score)
	assert.Equal(t, []string{"React"}, result.SharedSkills)
	assert.True(t, result.SameLocation)
	assert.Len(t, result.Topics, 3)
	presenceRepo.AssertExpectations(t)
}

func TestScorePairPartnerNotCheckedIn(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepositoryMock)
	router := setupSessionRouter(newSessionHandler(presenceRepo))

	presenceRepo.On("GetByUser", mock.Anything, "u1").Return(selfRecord(), nil).Once()
	presenceRepo.On("GetByUser", mock.Anything, "u2").
		Return(models.PresenceRecord{}, repositories.ErrPresenceNotFound).Once()

	body := bytes.NewBufferString(`{"partner_id":"u2"}`)
	req := httptest.NewRequest(http.MethodPost, "/matches/score", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	presenceRepo.AssertExpectations(t)
}

func TestScorePairInvisiblePartnerReadsAsMissing(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepositoryMock)
	router := setupSessionRouter(newSessionHandler(presenceRepo))

	presenceRepo.On("GetByUser", mock.Anything, "u1").Return(selfRecord(), nil).Once()
	presenceRepo.On("GetByUser", mock.Anything, "u2").Return(partnerRecord(models.VisibilityInvisible), nil).Once()

	body := bytes.NewBufferString(`{"partner_id":"u2"}`)
	req := httptest.NewRequest(http.MethodPost, "/matches/score", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	presenceRepo.AssertExpectations(t)
}

func TestInviteSuccess(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepositoryMock)
	router := setupSessionRouter(newSessionHandler(presenceRepo))

	presenceRepo.On("GetByUser", mock.Anything, "u1").Return(selfRecord(), nil).Once()
	presenceRepo.On("GetByUser", mock.Anything, "u2").Return(partnerRecord(models.VisibilityOpen), nil).Once()

	body := bytes.NewBufferString(`{"partner_id":"u2"}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/invite", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, session.StateInvited, snap.State)
	assert.Equal(t, "u2", snap.PartnerID)
	assert.True(t, snap.JustInvited)
	presenceRepo.AssertExpectations(t)
}

func TestInviteFocusedPartnerConflicts(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepositoryMock)
	router := setupSessionRouter(newSessionHandler(presenceRepo))

	presenceRepo.On("GetByUser", mock.Anything, "u1").Return(selfRecord(), nil).Once()
	presenceRepo.On("GetByUser", mock.Anything, "u2").Return(partnerRecord(models.VisibilityFocused), nil).Once()

	body := bytes.NewBufferString(`{"partner_id":"u2"}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/invite", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	presenceRepo.AssertExpectations(t)
}

func TestInviteSelfRejected(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepositoryMock)
	router := setupSessionRouter(newSessionHandler(presenceRepo))

	body := bytes.NewBufferString(`{"partner_id":"u1"}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/invite", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	presenceRepo.AssertNotCalled(t, "GetByUser", mock.Anything, mock.Anything)
}

func TestSessionLifecycleThroughHandlers(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepositoryMock)
	handler := newSessionHandler(presenceRepo)
	router := setupSessionRouter(handler)

	presenceRepo.On("GetByUser", mock.Anything, "u1").Return(selfRecord(), nil).Once()
	presenceRepo.On("GetByUser", mock.Anything, "u2").Return(partnerRecord(models.VisibilityOpen), nil).Once()

	do := func(method, path, body string) session.Snapshot {
		t.Helper()
		var buf *bytes.Buffer
		if body == "" {
			buf = bytes.NewBuffer(nil)
		} else {
			buf = bytes.NewBufferString(body)
		}
		req := httptest.NewRequest(method, path, buf)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var snap session.Snapshot
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
		return snap
	}

	snap := do(http.MethodPost, "/sessions/invite", `{"partner_id":"u2"}`)
	require.Equal(t, session.StateInvited, snap.State)

	snap = do(http.MethodPost, "/sessions/reveal", `{}`)
	require.Equal(t, session.StateMatchRevealed, snap.State)
	require.NotNil(t, snap.Compatibility)
	assert.Equal(t, 45, snap.Compatibility.Score)

	snap = do(http.MethodPost, "/sessions/close-reveal", `{}`)
	require.Equal(t, session.StateChatOpen, snap.State)

	snap = do(http.MethodPost, "/sessions/end", `{"save_connection":false}`)
	require.Equal(t, session.StateIdle, snap.State)
	assert.Empty(t, snap.PartnerID)

	snap = do(http.MethodGet, "/sessions/current", "")
	require.Equal(t, session.StateIdle, snap.State)
	presenceRepo.AssertExpectations(t)
}

func TestResetFromAnyState(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepositoryMock)
	router := setupSessionRouter(newSessionHandler(presenceRepo))

	presenceRepo.On("GetByUser", mock.Anything, "u1").Return(selfRecord(), nil).Once()
	presenceRepo.On("GetByUser", mock.Anything, "u2").Return(partnerRecord(models.VisibilityOpen), nil).Once()

	body := bytes.NewBufferString(`{"partner_id":"u2"}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/invite", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/sessions/reset", bytes.NewBuffer(nil))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, session.StateIdle, snap.State)
	presenceRepo.AssertExpectations(t)
}
