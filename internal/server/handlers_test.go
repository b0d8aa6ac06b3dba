package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/171k/ICT602-Laundroyale/internal/analytics"
	"github.com/171k/ICT602-Laundroyale/internal/booking"
	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
	"github.com/171k/ICT602-Laundroyale/internal/payment"
	"github.com/171k/ICT602-Laundroyale/internal/repository"
	server_mocks "github.com/171k/ICT602-Laundroyale/internal/server/mocks"
)

type serverFixture struct {
	bookings  *server_mocks.MockBookingService
	orders    *server_mocks.MockOrderReader
	payments  *server_mocks.MockPaymentSettler
	rewards   *server_mocks.MockRewardLedger
	machines  *server_mocks.MockMachineStore
	analytics *server_mocks.MockAnalyticsService
	users     *server_mocks.MockUserRepo
	srv       *Server
}

func newServerFixture(t *testing.T) *serverFixture {
	ctrl := gomock.NewController(t)
	f := &serverFixture{
		bookings:  server_mocks.NewMockBookingService(ctrl),
		orders:    server_mocks.NewMockOrderReader(ctrl),
		payments:  server_mocks.NewMockPaymentSettler(ctrl),
		rewards:   server_mocks.NewMockRewardLedger(ctrl),
		machines:  server_mocks.NewMockMachineStore(ctrl),
		analytics: server_mocks.NewMockAnalyticsService(ctrl),
		users:     server_mocks.NewMockUserRepo(ctrl),
	}
	f.srv = New(f.bookings, f.orders, f.payments, f.rewards, f.machines, f.analytics, f.users)
	return f
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHandleCreateBooking(t *testing.T) {
	start := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	reqBody := map[string]interface{}{
		"user_id":    "u1",
		"machine_id": "m1",
		"start_time": start,
		"end_time":   end,
	}

	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"created", nil, http.StatusCreated},
		{"link incomplete still created", booking.ErrLinkIncomplete, http.StatusCreated},
		{"slot conflict", booking.ErrSlotUnavailable, http.StatusConflict},
		{"bad duration", booking.ErrInvalidDuration, http.StatusBadRequest},
		{"machine under maintenance", booking.ErrMachineUnavailable, http.StatusBadRequest},
		{"machine missing", docstore.ErrNotFound, http.StatusNotFound},
		{"storage error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newServerFixture(t)
			f.bookings.EXPECT().
				CreateBooking(gomock.Any(), "u1", "m1", "", start, end).
				Return("order-1", tc.serviceErr)

			req := httptest.NewRequest(http.MethodPost, "/bookings", jsonBody(t, reqBody))
			rec := httptest.NewRecorder()
			f.srv.handleCreateBooking(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusCreated {
				body := decodeBody(t, rec)
				assert.Equal(t, "order-1", body["id"])
				if errors.Is(tc.serviceErr, booking.ErrLinkIncomplete) {
					assert.Equal(t, "payment link incomplete", body["warning"])
				}
			}
		})
	}
}

func TestHandleCreateBookingValidation(t *testing.T) {
	f := newServerFixture(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing ids", map[string]interface{}{"start_time": time.Now(), "end_time": time.Now()}},
		{"missing times", map[string]interface{}{"user_id": "u1", "machine_id": "m1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bookings", jsonBody(t, tc.body))
			rec := httptest.NewRecorder()
			f.srv.handleCreateBooking(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleCompletePayment(t *testing.T) {
	cases := []struct {
		name       string
		settleErr  error
		wantStatus int
	}{
		{"completed", nil, http.StatusOK},
		{"already settled", payment.ErrAlreadySettled, http.StatusConflict},
		{"payment missing", docstore.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newServerFixture(t)
			f.payments.EXPECT().
				Complete(gomock.Any(), "p1", "card", "v1").
				Return(tc.settleErr)

			body := jsonBody(t, map[string]string{"payment_method": "card", "voucher_id": "v1"})
			req := httptest.NewRequest(http.MethodPost, "/payments/p1/complete", body)
			req = mux.SetURLVars(req, map[string]string{"id": "p1"})
			rec := httptest.NewRecorder()
			f.srv.handleCompletePayment(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestHandleCompletePaymentMissingMethod(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/payments/p1/complete", jsonBody(t, map[string]string{}))
	req = mux.SetURLVars(req, map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()
	f.srv.handleCompletePayment(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTokenBalance(t *testing.T) {
	f := newServerFixture(t)
	f.rewards.EXPECT().AvailableTokenCount(gomock.Any(), "u1").Return(3)

	req := httptest.NewRequest(http.MethodGet, "/users/u1/tokens/count", nil)
	req = mux.SetURLVars(req, map[string]string{"userID": "u1"})
	rec := httptest.NewRecorder()
	f.srv.handleTokenBalance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 3, body["tokens"])
}

func TestHandleUseToken(t *testing.T) {
	f := newServerFixture(t)
	f.rewards.EXPECT().UseToken(gomock.Any(), "u1").Return(nil)
	f.rewards.EXPECT().UseToken(gomock.Any(), "u1").Return(repository.ErrNoTokens)

	req := httptest.NewRequest(http.MethodPost, "/users/u1/tokens/use", nil)
	req = mux.SetURLVars(req, map[string]string{"userID": "u1"})

	rec := httptest.NewRecorder()
	f.srv.handleUseToken(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.srv.handleUseToken(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleGetMachine(t *testing.T) {
	f := newServerFixture(t)
	f.machines.EXPECT().
		GetByID(gomock.Any(), "missing").
		Return(model.Machine{}, docstore.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/machines/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()
	f.srv.handleGetMachine(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCreateMachineValidation(t *testing.T) {
	f := newServerFixture(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"type": model.MachineTypeWasher, "price": 5}},
		{"bad type", map[string]interface{}{"machine_name": "W1", "type": "fridge", "price": 5}},
		{"bad price", map[string]interface{}{"machine_name": "W1", "type": model.MachineTypeWasher, "price": 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/machines", jsonBody(t, tc.body))
			rec := httptest.NewRecorder()
			f.srv.handleCreateMachine(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleDeleteUser(t *testing.T) {
	f := newServerFixture(t)
	f.users.EXPECT().Delete(gomock.Any(), "u1").Return(nil)
	f.users.EXPECT().Delete(gomock.Any(), "ghost").Return(docstore.ErrNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/users/u1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "u1"})
	rec := httptest.NewRecorder()
	f.srv.handleDeleteUser(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/users/ghost", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "ghost"})
	rec = httptest.NewRecorder()
	f.srv.handleDeleteUser(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListUsers(t *testing.T) {
	f := newServerFixture(t)
	f.users.EXPECT().List(gomock.Any()).
		Return([]model.User{{ID: "u1", Username: "alice", Role: model.RoleCustomer}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	f.srv.handleListUsers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var users []model.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&users))
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestRouterAuth(t *testing.T) {
	f := newServerFixture(t)
	router := f.srv.setupRoutes()

	t.Run("no credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/machines", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad credentials", func(t *testing.T) {
		f.users.EXPECT().ValidateUser(gomock.Any(), "alice", "wrong").Return(false, nil)

		req := httptest.NewRequest(http.MethodGet, "/machines", nil)
		req.SetBasicAuth("alice", "wrong")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("customer blocked from admin route", func(t *testing.T) {
		f.users.EXPECT().ValidateUser(gomock.Any(), "alice", "pw").Return(true, nil)
		f.users.EXPECT().GetByUsername(gomock.Any(), "alice").
			Return(model.User{Username: "alice", Role: model.RoleCustomer}, nil)

		req := httptest.NewRequest(http.MethodGet, "/analytics", nil)
		req.SetBasicAuth("alice", "pw")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		f.users.EXPECT().ValidateUser(gomock.Any(), "admin", "pw").Return(true, nil)
		f.users.EXPECT().GetByUsername(gomock.Any(), "admin").
			Return(model.User{Username: "admin", Role: model.RoleAdmin}, nil)
		f.analytics.EXPECT().Build(gomock.Any()).Return(analytics.Report{TotalRevenue: 70}, nil)

		req := httptest.NewRequest(http.MethodGet, "/analytics", nil)
		req.SetBasicAuth("admin", "pw")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
