package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"match-service/internal/clients"
	"match-service/internal/enrich"
	"match-service/internal/models"
	"match-service/internal/repositories"
)

type PresenceRepositoryMock struct {
	mock.Mock
}

func (m *PresenceRepositoryMock) CheckIn(ctx context.Context, rec models.PresenceRecord) (models.PresenceRecord, error) {
	args := m.Called(ctx, rec)
	var out models.PresenceRecord
	if val := args.Get(0); val != nil {
		out = val.(models.PresenceRecord)
	}
	return out, args.Error(1)
}

func (m *PresenceRepositoryMock) CheckOut(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *PresenceRepositoryMock) UpdateVisibility(ctx context.Context, userID string, visibility models.Visibility) error {
	args := m.Called(ctx, userID, visibility)
	return args.Error(0)
}

func (m *PresenceRepositoryMock) UpdateSkills(ctx context.Context, userID string, skills []string) error {
	args := m.Called(ctx, userID, skills)
	return args.Error(0)
}

func (m *PresenceRepositoryMock) GetByUser(ctx context.Context, userID string) (models.PresenceRecord, error) {
	args := m.Called(ctx, userID)
	var rec models.PresenceRecord
	if val := args.Get(0); val != nil {
		rec = val.(models.PresenceRecord)
	}
	return rec, args.Error(1)
}

func (m *PresenceRepositoryMock) ListByLab(ctx context.Context, labID string) ([]models.PresenceRecord, error) {
	args := m.Called(ctx, labID)
	var recs []models.PresenceRecord
	if val := args.Get(0); val != nil {
		recs = val.([]models.PresenceRecord)
	}
	return recs, args.Error(1)
}

func (m *PresenceRepositoryMock) ExpireStale(ctx context.Context, olderThan time.Duration) ([]repositories.ExpiredPresence, error) {
	args := m.Called(ctx, olderThan)
	var expired []repositories.ExpiredPresence
	if val := args.Get(0); val != nil {
		expired = val.([]repositories.ExpiredPresence)
	}
	return expired, args.Error(1)
}

type ConnectionRepositoryMock struct {
	mock.Mock
}

func (m *ConnectionRepositoryMock) CreateConnection(ctx context.Context, conn models.Connection) (models.Connection, error) {
	args := m.Called(ctx, conn)
	var out models.Connection
	if val := args.Get(0); val != nil {
		out = val.(models.Connection)
	}
	return out, args.Error(1)
}

func (m *ConnectionRepositoryMock) UpdateConnectionNote(ctx context.Context, connectionID int, userID string, note string) error {
	args := m.Called(ctx, connectionID, userID, note)
	return args.Error(0)
}

func (m *ConnectionRepositoryMock) ListConnections(ctx context.Context, userID string) ([]models.Connection, error) {
	args := m.Called(ctx, userID)
	var conns []models.Connection
	if val := args.Get(0); val != nil {
		conns = val.([]models.Connection)
	}
	return conns, args.Error(1)
}

func (m *ConnectionRepositoryMock) GetConnection(ctx context.Context, connectionID int) (models.Connection, error) {
	args := m.Called(ctx, connectionID)
	var conn models.Connection
	if val := args.Get(0); val != nil {
		conn = val.(models.Connection)
	}
	return conn, args.Error(1)
}

type TokenValidatorMock struct {
	mock.Mock
}

func (m *TokenValidatorMock) ValidateToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type GeneratorMock struct {
	mock.Mock
}

func (m *GeneratorMock) Enrich(ctx context.Context, req enrich.Request) (*enrich.Result, error) {
	args := m.Called(ctx, req)
	var result *enrich.Result
	if val := args.Get(0); val != nil {
		result = val.(*enrich.Result)
	}
	return result, args.Error(1)
}

var _ repositories.PresenceRepository = (*PresenceRepositoryMock)(nil)
var _ repositories.ConnectionRepository = (*ConnectionRepositoryMock)(nil)
var _ enrich.Generator = (*GeneratorMock)(nil)
var _ clients.TokenValidator = (*TokenValidatorMock)(nil)
