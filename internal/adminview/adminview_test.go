package adminview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/models"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
)

type fakeAPI struct {
	rows        []models.Reservation
	listErr     error
	filters     []models.ReservationFilter
	records     map[string]*models.Reservation
	getErr      error
	updateErr   error
	statusCalls []models.ReservationStatus
	memoCalls   []string
}

func (f *fakeAPI) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	f.filters = append(f.filters, filter)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rows, nil
}

func (f *fakeAPI) Get(ctx context.Context, id string) (*models.Reservation, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	record, ok := f.records[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
	}
	clone := *record
	return &clone, nil
}

func (f *fakeAPI) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus) (*dto.ReservationMutation, error) {
	f.statusCalls = append(f.statusCalls, status)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dto.ReservationMutation{ID: id, Status: status, UpdatedAt: time.Now()}, nil
}

func (f *fakeAPI) UpdateMemo(ctx context.Context, id, memo string) (*dto.ReservationMutation, error) {
	f.memoCalls = append(f.memoCalls, memo)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dto.ReservationMutation{ID: id, AdminMemo: models.OptionalString(memo), UpdatedAt: time.Now()}, nil
}

func triageRows() []models.Reservation {
	return []models.Reservation{
		{ID: "3", Status: models.StatusReceived},
		{ID: "2", Status: models.StatusReceived},
		{ID: "1", Status: models.StatusConfirmed},
	}
}

func TestTriageFiltersRefetch(t *testing.T) {
	api := &fakeAPI{rows: triageRows()}
	tr := NewTriage(api)
	ctx := context.Background()

	require.NoError(t, tr.SetGrade(ctx, "중2"))
	require.NoError(t, tr.SetStatus(ctx, models.StatusReceived))
	require.NoError(t, tr.SetDate(ctx, "2026-10-20"))
	require.Len(t, api.filters, 3)
	assert.Equal(t, models.ReservationFilter{Grade: "중2", Status: models.StatusReceived, DesiredDate: "2026-10-20"}, api.filters[2])

	require.NoError(t, tr.Reset(ctx))
	require.Len(t, api.filters, 4, "reset issues exactly one read")
	assert.True(t, api.filters[3].IsZero())
	assert.True(t, tr.Filter().IsZero())
}

func TestTriageSummaryIncludesZeroBuckets(t *testing.T) {
	tr := NewTriage(&fakeAPI{rows: triageRows()})
	require.NoError(t, tr.Refresh(context.Background()))

	assert.Equal(t, []models.StatusCount{
		{Status: models.StatusReceived, Count: 2},
		{Status: models.StatusContacted, Count: 0},
		{Status: models.StatusConfirmed, Count: 1},
		{Status: models.StatusCompleted, Count: 0},
		{Status: models.StatusCancelled, Count: 0},
	}, tr.Summary())
	assert.Equal(t, "3", tr.Rows()[0].ID)
}

func TestTriageReadFailureKeepsRows(t *testing.T) {
	api := &fakeAPI{rows: triageRows()}
	tr := NewTriage(api)
	ctx := context.Background()
	require.NoError(t, tr.Refresh(ctx))

	api.listErr = errors.New("timeout")
	err := tr.SetStatus(ctx, models.StatusCancelled)
	require.Error(t, err)
	assert.Len(t, tr.Rows(), 3)
	assert.Equal(t, err, tr.Err())
	assert.True(t, tr.Loaded())

	api.listErr = nil
	require.NoError(t, tr.Refresh(ctx))
	assert.NoError(t, tr.Err())
}

func TestTriageOpen(t *testing.T) {
	memo := "메모"
	api := &fakeAPI{records: map[string]*models.Reservation{"1": {ID: "1", Status: models.StatusReceived, AdminMemo: &memo}}}
	tr := NewTriage(api)

	d, err := tr.Open(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, DetailReady, d.State())
	assert.Equal(t, "1", d.Reservation().ID)

	d, err = tr.Open(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, DetailNotFound, d.State())
	assert.Nil(t, d.Reservation())
}

func TestDetailLoadFailure(t *testing.T) {
	d := NewDetail(&fakeAPI{getErr: errors.New("connection reset")}, "1")
	assert.Equal(t, DetailLoading, d.State())
	require.Error(t, d.Load(context.Background()))
	assert.Equal(t, DetailFailed, d.State())
	assert.ErrorIs(t, d.SelectStatus(context.Background(), models.StatusConfirmed), ErrNotLoaded)
}

func loadedDetail(t *testing.T, api *fakeAPI, memo *string) *Detail {
	t.Helper()
	if api.records == nil {
		api.records = map[string]*models.Reservation{}
	}
	api.records["r1"] = &models.Reservation{ID: "r1", Status: models.StatusReceived, AdminMemo: memo}
	d := NewDetail(api, "r1")
	require.NoError(t, d.Load(context.Background()))
	return d
}

func TestDetailSelectStatus(t *testing.T) {
	api := &fakeAPI{}
	d := loadedDetail(t, api, nil)
	ctx := context.Background()

	require.NoError(t, d.SelectStatus(ctx, models.StatusContacted))
	assert.Equal(t, models.StatusContacted, d.Reservation().Status)
	require.NoError(t, d.SelectStatus(ctx, models.StatusContacted))
	assert.Len(t, api.statusCalls, 1)

	require.NoError(t, d.SelectStatus(ctx, models.StatusReceived), "statuses may move backwards")
	assert.Equal(t, models.StatusReceived, d.Reservation().Status)

	assert.True(t, appErrors.HasCode(d.SelectStatus(ctx, "보류"), appErrors.ErrValidation))

	api.updateErr = errors.New("denied")
	require.Error(t, d.SelectStatus(ctx, models.StatusCancelled))
	assert.Equal(t, models.StatusReceived, d.Reservation().Status)
}

func TestDetailEditorStartsEditingWithoutMemo(t *testing.T) {
	d := loadedDetail(t, &fakeAPI{}, nil)

	assert.True(t, d.Editing())
	assert.False(t, d.CanCancel(), "nothing saved to return to")
	assert.False(t, d.CancelEdit())
	assert.True(t, d.CanFillTemplate())

	require.True(t, d.FillTemplate())
	assert.Equal(t, MemoTemplate, d.MemoDraft())
	assert.False(t, d.CanFillTemplate())
	assert.False(t, d.FillTemplate())
}

func TestDetailEditorReadOnlyWithMemo(t *testing.T) {
	memo := "기존 메모"
	d := loadedDetail(t, &fakeAPI{}, &memo)

	assert.False(t, d.Editing())
	d.EditMemo("ignored")
	assert.Equal(t, "기존 메모", d.MemoDraft())

	d.StartEditing()
	d.EditMemo("바뀐 메모")
	assert.True(t, d.CanCancel())
	assert.False(t, d.CanFillTemplate())

	require.True(t, d.CancelEdit())
	assert.False(t, d.Editing())
	assert.Equal(t, "기존 메모", d.MemoDraft())
}

func TestDetailSaveMemo(t *testing.T) {
	api := &fakeAPI{}
	d := loadedDetail(t, api, nil)

	d.EditMemo("[현재 수준]\n중")
	require.NoError(t, d.SaveMemo(context.Background()))
	assert.False(t, d.Editing())
	assert.Equal(t, MsgMemoSaved, d.Message())
	assert.Equal(t, "[현재 수준]\n중", models.StringValue(d.Reservation().AdminMemo))
	assert.Equal(t, []string{"[현재 수준]\n중"}, api.memoCalls)
}

func TestDetailSaveMemoFailureKeepsEditing(t *testing.T) {
	api := &fakeAPI{}
	d := loadedDetail(t, api, nil)
	api.updateErr = appErrors.Clone(appErrors.ErrForbidden, "forbidden")

	d.EditMemo("초안")
	require.Error(t, d.SaveMemo(context.Background()))
	assert.True(t, d.Editing())
	assert.Equal(t, "초안", d.MemoDraft())
	assert.Equal(t, MsgMemoSaveFailed, d.Message())
	assert.Nil(t, d.Reservation().AdminMemo)
}
