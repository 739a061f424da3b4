package rest_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swagly/proof-validator/internal/api/middleware"
	"github.com/swagly/proof-validator/internal/api/rest"
	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/mocks"
	"github.com/swagly/proof-validator/internal/proof"
	"github.com/swagly/proof-validator/internal/store/schema"
)

const apiKey = "admin-key"

type testServer struct {
	router  *gin.Engine
	service *mocks.MockProofService
	key     *rsa.PrivateKey
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	service := mocks.NewMockProofService(ctrl)
	router := gin.New()
	rest.SetupRoutes(router, rest.NewHandler(service), middleware.Auth(middleware.AuthConfig{
		JWTPublicKey: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
		APIKeys:      []string{apiKey},
	}))

	return &testServer{router: router, service: service, key: key}
}

func (s *testServer) token(t *testing.T, subject string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(s.key)
	require.NoError(t, err)
	return "Bearer " + token
}

func (s *testServer) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func txBody(userID string) map[string]string {
	return map[string]string{
		"userId":         userID,
		"activityId":     "act-1",
		"passportId":     "pass-1",
		"transactionUrl": "https://scrollscan.com/tx/0xabc",
	}
}

func TestAutoValidateTransaction_OutcomeStatus(t *testing.T) {
	rewardHash := "0xfeed"
	tests := []struct {
		name   string
		result *proof.Result
		status int
	}{
		{"approved", &proof.Result{Outcome: proof.OutcomeApproved, ProofID: "p1", Status: domain.ProofStatusApproved, TokensAwarded: 50, RewardTxHash: &rewardHash}, http.StatusOK},
		{"rejected", &proof.Result{Outcome: proof.OutcomeRejected, ProofID: "p1", Status: domain.ProofStatusRejected, Error: "No USDC transfer"}, http.StatusUnprocessableEntity},
		{"invalid input", &proof.Result{Outcome: proof.OutcomeInvalidInput, Error: "Could not extract"}, http.StatusBadRequest},
		{"not found", &proof.Result{Outcome: proof.OutcomeNotFound, Error: "Activity not found"}, http.StatusNotFound},
		{"conflict", &proof.Result{Outcome: proof.OutcomeConflict, Error: "already completed"}, http.StatusConflict},
		{"upstream", &proof.Result{Outcome: proof.OutcomeUpstreamError, Error: "busy"}, http.StatusBadGateway},
		{"internal", &proof.Result{Outcome: proof.OutcomeInternalError, Error: "Something went wrong"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.service.EXPECT().SubmitTransaction(gomock.Any(), proof.SubmitRequest{
				UserID: "user-1", ActivityID: "act-1", PassportID: "pass-1", Input: "https://scrollscan.com/tx/0xabc",
			}).Return(tt.result)

			w := s.do(t, http.MethodPost, "/api/v1/proofs/auto-validate-transaction", s.token(t, "user-1"), txBody("user-1"))
			assert.Equal(t, tt.status, w.Code)

			body := decode(t, w)
			assert.Equal(t, tt.result.Success(), body["success"])
			assert.Equal(t, string(tt.result.Outcome), body["outcome"])
			if tt.result.Error != "" {
				assert.Equal(t, tt.result.Error, body["error"])
			}
		})
	}
}

func TestAutoValidateTransaction_ApprovedBody(t *testing.T) {
	s := newTestServer(t)
	s.service.EXPECT().SubmitTransaction(gomock.Any(), gomock.Any()).Return(&proof.Result{
		Outcome: proof.OutcomeApproved, ProofID: "p1", Status: domain.ProofStatusApproved, TokensAwarded: 0,
	})

	w := s.do(t, http.MethodPost, "/api/v1/proofs/auto-validate-transaction", "ApiKey "+apiKey, txBody("user-9"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"outcome":"approved","proofId":"p1","status":"approved","tokensAwarded":0}`, w.Body.String())
}

func TestAutoValidateTransaction_Auth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/proofs/auto-validate-transaction", "", txBody("user-1"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// a user token may only submit for its own subject
	w = s.do(t, http.MethodPost, "/api/v1/proofs/auto-validate-transaction", s.token(t, "user-2"), txBody("user-1"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decode(t, w)["code"])

	// a token without a subject acts for nobody
	w = s.do(t, http.MethodPost, "/api/v1/proofs/auto-validate-transaction", s.token(t, ""), txBody("user-1"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAutoValidateTransaction_Validation(t *testing.T) {
	s := newTestServer(t)
	auth := "ApiKey " + apiKey

	w := s.do(t, http.MethodPost, "/api/v1/proofs/auto-validate-transaction", auth, "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", decode(t, w)["code"])

	body := txBody("user-1")
	delete(body, "passportId")
	w = s.do(t, http.MethodPost, "/api/v1/proofs/auto-validate-transaction", auth, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "passportId is required", decode(t, w)["details"])

	body = txBody("user-1")
	body["transactionUrl"] = "  "
	w = s.do(t, http.MethodPost, "/api/v1/proofs/auto-validate-transaction", auth, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "transactionUrl is required", decode(t, w)["details"])
}

func TestAutoValidateReferral(t *testing.T) {
	s := newTestServer(t)
	s.service.EXPECT().SubmitReferral(gomock.Any(), proof.SubmitRequest{
		UserID: "user-1", ActivityID: "act-ref", PassportID: "pass-1", Input: "https://partner.xyz/?ref=CODE1",
	}).Return(&proof.Result{Outcome: proof.OutcomeApproved, ProofID: "p2", Status: domain.ProofStatusApproved, TokensAwarded: 20, RefCode: "CODE1"})

	w := s.do(t, http.MethodPost, "/api/v1/proofs/auto-validate-referral", s.token(t, "user-1"), map[string]string{
		"userId": "user-1", "activityId": "act-ref", "passportId": "pass-1", "referralUrl": "https://partner.xyz/?ref=CODE1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "CODE1", body["refCode"])
	assert.EqualValues(t, 20, body["tokensAwarded"])
}

func TestSubmitManualProof(t *testing.T) {
	s := newTestServer(t)
	s.service.EXPECT().SubmitManualProof(gomock.Any(), proof.ManualRequest{
		UserID: "user-1", ActivityID: "act-manual", PassportID: "pass-1", ProofType: domain.ProofTypeImage, Content: "https://cdn/x.png",
	}).Return(&proof.Result{Outcome: proof.OutcomePending, ProofID: "p3", Status: domain.ProofStatusPending})

	w := s.do(t, http.MethodPost, "/api/v1/proofs/manual", s.token(t, "user-1"), map[string]string{
		"userId": "user-1", "activityId": "act-manual", "passportId": "pass-1", "proofType": "image", "content": "https://cdn/x.png",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"outcome":"pending","proofId":"p3","status":"pending"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/proofs/manual", s.token(t, "user-1"), map[string]string{
		"userId": "user-1", "activityId": "act-manual", "passportId": "pass-1", "proofType": "transaction", "content": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewProof(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(t, http.MethodPost, "/api/v1/proofs/p3/review", s.token(t, "user-1"), map[string]string{
			"action": "approve", "reviewer": "admin",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("approve", func(t *testing.T) {
		s := newTestServer(t)
		s.service.EXPECT().ReviewProof(gomock.Any(), proof.ReviewRequest{ProofID: "p3", Approve: true, Reviewer: "admin"}).
			Return(&proof.Result{Outcome: proof.OutcomeApproved, ProofID: "p3", Status: domain.ProofStatusApproved, TokensAwarded: 30})

		w := s.do(t, http.MethodPost, "/api/v1/proofs/p3/review", "ApiKey "+apiKey, map[string]string{
			"action": "approve", "reviewer": "admin",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("reject without reason", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(t, http.MethodPost, "/api/v1/proofs/p3/review", "ApiKey "+apiKey, map[string]string{
			"action": "reject", "reviewer": "admin",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not pending", func(t *testing.T) {
		s := newTestServer(t)
		s.service.EXPECT().ReviewProof(gomock.Any(), gomock.Any()).
			Return(&proof.Result{Outcome: proof.OutcomeConflict, Error: "This proof is not pending review"})

		w := s.do(t, http.MethodPost, "/api/v1/proofs/p3/review", "ApiKey "+apiKey, map[string]string{
			"action": "reject", "reviewer": "admin", "reason": "blurry",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestGetProof(t *testing.T) {
	hash := "0xabc"
	stored := &schema.ActivityProof{
		ID:              "p1",
		UserID:          "user-1",
		ActivityID:      "act-1",
		PassportID:      "pass-1",
		ProofType:       domain.ProofTypeTransaction,
		Status:          domain.ProofStatusApproved,
		TransactionHash: &hash,
		TokensAwarded:   50,
		Details:         []byte(`{"amount":"25"}`),
	}

	t.Run("owner", func(t *testing.T) {
		s := newTestServer(t)
		s.service.EXPECT().GetProof(gomock.Any(), "p1").Return(stored, nil)

		w := s.do(t, http.MethodGet, "/api/v1/proofs/p1", s.token(t, "user-1"), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "0xabc", body["transactionHash"])
		assert.Equal(t, map[string]any{"amount": "25"}, body["details"])
	})

	t.Run("other user sees not found", func(t *testing.T) {
		s := newTestServer(t)
		s.service.EXPECT().GetProof(gomock.Any(), "p1").Return(stored, nil)

		w := s.do(t, http.MethodGet, "/api/v1/proofs/p1", s.token(t, "user-2"), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("token without subject", func(t *testing.T) {
		s := newTestServer(t)

		w := s.do(t, http.MethodGet, "/api/v1/proofs/p1", s.token(t, ""), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		s := newTestServer(t)
		s.service.EXPECT().GetProof(gomock.Any(), "nope").Return(nil, nil)

		w := s.do(t, http.MethodGet, "/api/v1/proofs/nope", "ApiKey "+apiKey, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("store error", func(t *testing.T) {
		s := newTestServer(t)
		s.service.EXPECT().GetProof(gomock.Any(), "p1").DoAndReturn(func(context.Context, string) (*schema.ActivityProof, error) {
			return nil, errors.New("connection reset")
		})

		w := s.do(t, http.MethodGet, "/api/v1/proofs/p1", "ApiKey "+apiKey, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

func TestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockAPIHandler(ctrl)

	passThrough := func(c *gin.Context) { c.Next() }
	router := gin.New()
	rest.SetupRoutes(router, handler, passThrough)

	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	handler.EXPECT().HealthCheck(gomock.Any()).Do(ok)
	handler.EXPECT().AutoValidateTransaction(gomock.Any()).Do(ok)
	handler.EXPECT().AutoValidateReferral(gomock.Any()).Do(ok)
	handler.EXPECT().SubmitManualProof(gomock.Any()).Do(ok)
	handler.EXPECT().ReviewProof(gomock.Any()).Do(ok)
	handler.EXPECT().GetProof(gomock.Any()).Do(ok)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/health"},
		{http.MethodPost, "/api/v1/proofs/auto-validate-transaction"},
		{http.MethodPost, "/api/v1/proofs/auto-validate-referral"},
		{http.MethodPost, "/api/v1/proofs/manual"},
		{http.MethodPost, "/api/v1/proofs/p1/review"},
		{http.MethodGet, "/api/v1/proofs/p1"},
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusNoContent, w.Code, route.path)
	}
}
