package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/models"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
)

const testID = "0b8f5a53-2f7e-4c38-9a3e-5b1f3f1f9d11"

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestReserve(t *testing.T) {
	var received dto.CreateReservationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/reserve", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("ignored"))
	err := c.Reserve(context.Background(), dto.CreateReservationRequest{StudentName: "홍길동"})
	require.NoError(t, err)
	assert.Equal(t, "홍길동", received.StudentName)
}

func TestReserveRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "학년을 선택해주세요."})
	}))
	defer srv.Close()

	err := New(srv.URL).Reserve(context.Background(), dto.CreateReservationRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "학년을 선택해주세요.", appErr.Message)
}

func TestLoginStoresTokenForAdminCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/admin/login":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "secret", body["password"])
			writeJSON(w, http.StatusOK, map[string]interface{}{"data": models.LoginResponse{AccessToken: "tok", TokenType: "Bearer"}})
		case "/api/v1/admin/reservations":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "중2", r.URL.Query().Get("grade"))
			assert.Equal(t, "확정", r.URL.Query().Get("status"))
			assert.Equal(t, "2026-10-20", r.URL.Query().Get("desiredDate"))
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"data": []models.Reservation{{ID: testID, Status: models.StatusConfirmed}},
				"meta": map[string]interface{}{"count": 1},
			})
		case "/api/v1/admin/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Login(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
	assert.Equal(t, "tok", c.Token())

	rows, err := c.List(context.Background(), models.ReservationFilter{Grade: "중2", Status: models.StatusConfirmed, DesiredDate: "2026-10-20"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, testID, rows[0].ID)

	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.Token())
}

func TestListEmptyEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]interface{}{"meta": map[string]interface{}{"count": 0}})
	}))
	defer srv.Close()

	rows, err := New(srv.URL).List(context.Background(), models.ReservationFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAdminErrorsKeepEnvelopeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": appErrors.Clone(appErrors.ErrNotFound, "reservation not found"),
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Get(context.Background(), testID)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
	assert.Equal(t, "reservation not found", appErrors.FromError(err).Message)
}

func TestAdminErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).UpdateMemo(context.Background(), testID, "메모")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.URL.Path {
		case "/v2/admin/reservations/" + testID + "/status":
			writeJSON(w, http.StatusOK, map[string]interface{}{"data": dto.ReservationMutation{ID: testID, Status: models.ReservationStatus(body["status"])}})
		case "/v2/admin/reservations/" + testID + "/memo":
			memo := body["admin_memo"]
			writeJSON(w, http.StatusOK, map[string]interface{}{"data": dto.ReservationMutation{ID: testID, AdminMemo: &memo}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithAPIPrefix("v2/"))
	mutation, err := c.UpdateStatus(context.Background(), testID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, mutation.Status)

	mutation, err = c.UpdateMemo(context.Background(), testID, "[현재 수준]\n상")
	require.NoError(t, err)
	assert.Equal(t, "[현재 수준]\n상", models.StringValue(mutation.AdminMemo))
}

func TestExport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/admin/reservations/export", r.URL.Path)
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		assert.Equal(t, "접수", r.URL.Query().Get("status"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="reservations-20261019-140000.csv"`)
		_, _ = w.Write([]byte("a,b\n"))
	}))
	defer srv.Close()

	file, err := New(srv.URL).Export(context.Background(), models.ReservationFilter{Status: models.StatusReceived}, dto.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "reservations-20261019-140000.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Equal(t, "a,b\n", string(file.Payload))
}

func TestWithTimeout(t *testing.T) {
	shared := &http.Client{Timeout: time.Second}
	c := New("http://localhost", WithHTTPClient(shared), WithTimeout(time.Minute))
	assert.Equal(t, time.Minute, c.http.Timeout)
	assert.Equal(t, time.Second, shared.Timeout, "the caller's client is not modified")

	assert.Equal(t, defaultTimeout, New("http://localhost").http.Timeout)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}))
	defer srv.Close()
	defer close(release)

	err := New(srv.URL, WithTimeout(20*time.Millisecond)).Reserve(context.Background(), dto.CreateReservationRequest{})
	assert.Error(t, err)
}
