package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/models"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
)

const cliTestID = "0b8f5a53-2f7e-4c38-9a3e-5b1f3f1f9d11"

// fakeServer answers the routes reservectl uses and records what it saw.
type fakeServer struct {
	mu       sync.Mutex
	reserved []dto.CreateReservationRequest
	auth     []string
	memo     *string
	status   models.ReservationStatus
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))

		reply := func(status int, body interface{}) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(body)
		}
		record := models.Reservation{
			ID: cliTestID, StudentName: "홍길동", Grade: "중2", ParentPhone: "010-1234-5678",
			ReservationType: models.TypeConsultation, DesiredDate: "2026-10-20", DesiredTimeSlot: "15:00",
			Status: f.status, AdminMemo: f.memo, CreatedAt: time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC),
		}

		switch {
		case r.URL.Path == "/api/reserve":
			var req dto.CreateReservationRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.reserved = append(f.reserved, req)
			reply(http.StatusOK, map[string]bool{"success": true})
		case r.URL.Path == "/api/v1/admin/login":
			reply(http.StatusOK, map[string]interface{}{"data": models.LoginResponse{AccessToken: "issued-token", ExpiresAt: time.Now().Add(time.Hour)}})
		case r.URL.Path == "/api/v1/admin/reservations":
			reply(http.StatusOK, map[string]interface{}{"data": []models.Reservation{record}})
		case r.URL.Path == "/api/v1/admin/reservations/"+cliTestID:
			reply(http.StatusOK, map[string]interface{}{"data": record})
		case r.URL.Path == "/api/v1/admin/reservations/"+cliTestID+"/status":
			var req dto.UpdateStatusRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.status = req.Status
			reply(http.StatusOK, map[string]interface{}{"data": dto.ReservationMutation{ID: cliTestID, Status: req.Status}})
		case r.URL.Path == "/api/v1/admin/reservations/"+cliTestID+"/memo":
			var req dto.UpdateMemoRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.memo = models.OptionalString(req.AdminMemo)
			reply(http.StatusOK, map[string]interface{}{"data": dto.ReservationMutation{ID: cliTestID, AdminMemo: f.memo}})
		case strings.HasPrefix(r.URL.Path, "/api/v1/admin/reservations/"):
			reply(http.StatusNotFound, map[string]interface{}{"error": appErrors.Clone(appErrors.ErrNotFound, "reservation not found")})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})
}

func runCLI(t *testing.T, srv *httptest.Server, tokenFile string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{args[0], "--server", srv.URL, "--token-file", tokenFile}, args[1:]...)
	code := run(context.Background(), full, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestSubmitCommand(t *testing.T) {
	fake := &fakeServer{status: models.StatusReceived}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	tokenFile := filepath.Join(t.TempDir(), "token")
	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	code, out, _ := runCLI(t, srv, tokenFile, "submit",
		"--type", models.TypeConsultation, "--name", "홍길동", "--grade", "중2", "--school", "대치",
		"--phone", "01012345678", "--score", "92", "--date", date, "--slot", "15:00")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "예약이 접수되었습니다.")
	require.Len(t, fake.reserved, 1)
	assert.Equal(t, "대치중학교", fake.reserved[0].School)
	assert.Equal(t, "92점", fake.reserved[0].RecentExamScore)
}

func TestSubmitCommandValidation(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	code, _, errOut := runCLI(t, srv, filepath.Join(t.TempDir(), "token"), "submit", "--type", models.TypeLevelTest, "--name", "홍길동")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "학년을 선택해주세요.")
	assert.Empty(t, fake.reserved)
}

func TestLoginThenAdminCommands(t *testing.T) {
	fake := &fakeServer{status: models.StatusReceived}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	passwordFile := filepath.Join(dir, "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte("miracle\n"), 0o600))

	code, _, _ := runCLI(t, srv, tokenFile, "login", "--password-file", passwordFile)
	require.Equal(t, 0, code)
	saved, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "issued-token\n", string(saved))

	code, out, _ := runCLI(t, srv, tokenFile, "list", "--grade", "중2")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "홍길동")
	assert.Contains(t, out, "연락완료")
	assert.Equal(t, "Bearer issued-token", fake.auth[len(fake.auth)-1])

	code, _, _ = runCLI(t, srv, tokenFile, "status", cliTestID, string(models.StatusConfirmed))
	require.Equal(t, 0, code)
	assert.Equal(t, models.StatusConfirmed, fake.status)

	code, out, _ = runCLI(t, srv, tokenFile, "memo", cliTestID, "--template")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "메모가 저장되었습니다.")
	assert.Equal(t, "[현재 수준]\n\n[추천 반]\n\n[상담 내용]\n\n[다음 상담일]\n", models.StringValue(fake.memo))

	code, _, errOut := runCLI(t, srv, tokenFile, "memo", cliTestID, "--template")
	assert.Equal(t, 1, code, "template only fills a blank memo")
	assert.Contains(t, errOut, "blank memo")

	code, out, _ = runCLI(t, srv, tokenFile, "show", cliTestID)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "[추천 반]")
	assert.Contains(t, out, "확정")
}

func TestShowMissingReservation(t *testing.T) {
	srv := httptest.NewServer((&fakeServer{}).handler(t))
	defer srv.Close()

	code, _, errOut := runCLI(t, srv, filepath.Join(t.TempDir(), "token"), "show", "6d3c1f0e-0000-4000-8000-000000000000")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "예약을 찾을 수 없습니다")
}

func TestUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{"frobnicate"}, &out, &errOut))
	assert.Contains(t, errOut.String(), "unknown command")
	assert.Contains(t, errOut.String(), "submit")
}

func TestTokenStore(t *testing.T) {
	store, err := newTokenStore(filepath.Join(t.TempDir(), "nested", "token"))
	require.NoError(t, err)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("abc"))
	info, err := os.Stat(store.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}

func TestRenderSummaryAndTruncate(t *testing.T) {
	summary := renderSummary(models.Summarize([]models.Reservation{{Status: models.StatusCompleted}}))
	for _, s := range models.ReservationStatuses {
		assert.Contains(t, summary, string(s))
	}
	assert.Equal(t, "짧음", truncate("짧음", 10))
	assert.Equal(t, "가나…", truncate("가나다라마", 5))
}
