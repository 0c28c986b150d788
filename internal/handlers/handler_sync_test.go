package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
	"github.com/tradekeeper/trade_keeper_app/internal/handlers"
	"github.com/tradekeeper/trade_keeper_app/internal/middleware"
)

// --- Mock SyncService ---

type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) Reconcile(ctx context.Context, userID string, snapshot domain.LocalSnapshot) (*domain.SyncResult, error) {
	args := m.Called(ctx, userID, snapshot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncResult), args.Error(1)
}

var _ portssvc.SyncSvcFacade = (*MockSyncService)(nil)

// --- Test Suite ---

type SyncHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockSyncService *MockSyncService
	jwtSecret       string
}

func (suite *SyncHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	dto.RegisterCustomValidators()
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockSyncService = new(MockSyncService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterSyncRoutes(v1, suite.mockSyncService)
}

func (suite *SyncHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "tka-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *SyncHandlerTestSuite) postSync(body dto.SyncRequest, token string) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	suite.Require().NoError(err)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/sync", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *SyncHandlerTestSuite) TestSync_Success() {
	userID := uuid.NewString()
	businessID := uuid.NewString()
	local := domain.Business{
		BusinessID:   businessID,
		Name:         "Kemi Stores",
		CurrencyCode: "NGN",
		Plan:         domain.PlanFree,
	}

	expected := &domain.SyncResult{
		Businesses: []domain.Business{{
			BusinessID:   businessID,
			Name:         "Kemi Stores",
			CurrencyCode: "NGN",
			Plan:         domain.PlanFree,
			OwnerID:      userID,
		}},
		Counts: domain.SyncCounts{Products: 2, Sales: 1},
	}

	suite.mockSyncService.On("Reconcile",
		mock.AnythingOfType("*context.valueCtx"),
		userID,
		mock.MatchedBy(func(s domain.LocalSnapshot) bool {
			return len(s.Businesses) == 1 && s.Businesses[0].BusinessID == businessID
		}),
	).Return(expected, nil).Once()

	w := suite.postSync(dto.SyncRequest{Businesses: []domain.Business{local}}, suite.generateTestToken(userID))

	suite.Equal(http.StatusOK, w.Code)
	var body dto.SyncResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Require().Len(body.Businesses, 1)
	suite.Equal(businessID, body.Businesses[0].BusinessID)
	suite.Equal(userID, body.Businesses[0].OwnerID)
	suite.Equal(2, body.Counts.Products)
	suite.mockSyncService.AssertExpectations(suite.T())
}

func (suite *SyncHandlerTestSuite) TestSync_NameCollisionReturns409() {
	userID := uuid.NewString()
	local := domain.Business{BusinessID: uuid.NewString(), Name: "Kemi Stores", CurrencyCode: "NGN"}
	cloudID := uuid.NewString()

	collision := &apperrors.NameCollisionError{
		Conflicts: []domain.NameConflict{{
			Local: domain.BusinessRef{BusinessID: local.BusinessID, Name: "Kemi Stores"},
			Cloud: domain.BusinessRef{BusinessID: cloudID, Name: "Kemi Stores"},
		}},
	}
	suite.mockSyncService.On("Reconcile", mock.Anything, userID, mock.Anything).Return(nil, collision).Once()

	w := suite.postSync(dto.SyncRequest{Businesses: []domain.Business{local}}, suite.generateTestToken(userID))

	suite.Equal(http.StatusConflict, w.Code)
	var body dto.NameCollisionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("NAME_COLLISION", body.Error)
	suite.Require().Len(body.Conflicts, 1)
	suite.Equal(local.BusinessID, body.Conflicts[0].Local.BusinessID)
	suite.Equal(cloudID, body.Conflicts[0].Cloud.BusinessID)
}

func (suite *SyncHandlerTestSuite) TestSync_PlanLimitReturns409() {
	userID := uuid.NewString()
	local := domain.Business{BusinessID: uuid.NewString(), Name: "Third Shop", CurrencyCode: "NGN"}
	existing := domain.Business{BusinessID: uuid.NewString(), Name: "First Shop", OwnerID: userID}

	limitErr := &apperrors.PlanLimitError{
		Limit:              2,
		CurrentCount:       2,
		NewCount:           3,
		ExistingBusinesses: []domain.Business{existing},
	}
	suite.mockSyncService.On("Reconcile", mock.Anything, userID, mock.Anything).Return(nil, limitErr).Once()

	w := suite.postSync(dto.SyncRequest{Businesses: []domain.Business{local}}, suite.generateTestToken(userID))

	suite.Equal(http.StatusConflict, w.Code)
	var body dto.PlanLimitResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("PLAN_LIMIT_EXCEEDED", body.Error)
	suite.Equal(2, body.Limit)
	suite.Equal(3, body.NewCount)
	suite.Require().Len(body.ExistingBusinesses, 1)
	suite.Equal(existing.BusinessID, body.ExistingBusinesses[0].BusinessID)
}

func (suite *SyncHandlerTestSuite) TestSync_MissingTokenReturns401() {
	w := suite.postSync(dto.SyncRequest{Businesses: []domain.Business{}}, "")

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockSyncService.AssertNotCalled(suite.T(), "Reconcile", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SyncHandlerTestSuite) TestSync_MalformedBodyReturns400() {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/sync", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(uuid.NewString()))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockSyncService.AssertNotCalled(suite.T(), "Reconcile", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncHandler(t *testing.T) {
	suite.Run(t, new(SyncHandlerTestSuite))
}
