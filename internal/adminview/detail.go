package adminview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/reservation-api/internal/models"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
)

// MemoTemplate seeds a blank memo with the consultation outline.
const MemoTemplate = "[현재 수준]\n\n[추천 반]\n\n[상담 내용]\n\n[다음 상담일]\n"

const (
	MsgMemoSaved      = "메모가 저장되었습니다."
	MsgMemoSaveFailed = "메모 저장에 실패했습니다. 저장소 UPDATE 권한 설정을 확인해주세요."
)

// ErrNotLoaded is returned by actions that need a loaded reservation.
var ErrNotLoaded = errors.New("reservation not loaded")

// DetailState is the load state of the detail view.
type DetailState int

const (
	DetailLoading DetailState = iota
	DetailReady
	DetailNotFound
	DetailFailed
)

func (s DetailState) String() string {
	switch s {
	case DetailLoading:
		return "loading"
	case DetailReady:
		return "ready"
	case DetailNotFound:
		return "not_found"
	case DetailFailed:
		return "failed"
	default:
		return fmt.Sprintf("DetailState(%d)", int(s))
	}
}

// Detail is one reservation with its status palette and memo editor.
//
// The editor is either read-only, showing the saved memo, or editing a draft.
// It starts editing when no memo has been saved yet.
type Detail struct {
	api     API
	id      string
	state   DetailState
	record  *models.Reservation
	editing bool
	draft   string
	message string
}

// NewDetail constructs a Detail for id in the loading state.
func NewDetail(api API, id string) *Detail {
	return &Detail{api: api, id: id}
}

// Load reads the reservation. A missing record moves the view to DetailNotFound.
func (d *Detail) Load(ctx context.Context) error {
	d.state = DetailLoading
	record, err := d.api.Get(ctx, d.id)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound) {
			d.state = DetailNotFound
		} else {
			d.state = DetailFailed
		}
		d.record = nil
		return err
	}

	d.record = record
	d.state = DetailReady
	d.draft = models.StringValue(record.AdminMemo)
	d.editing = d.savedMemo() == ""
	d.message = ""
	return nil
}

// SelectStatus sets the status. Choosing the current status succeeds without a request.
func (d *Detail) SelectStatus(ctx context.Context, status models.ReservationStatus) error {
	if d.record == nil {
		return ErrNotLoaded
	}
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
	}
	if status == d.record.Status {
		return nil
	}
	mutation, err := d.api.UpdateStatus(ctx, d.id, status)
	if err != nil {
		return err
	}
	d.record.Status = status
	d.record.UpdatedAt = mutation.UpdatedAt
	return nil
}

// StartEditing switches the editor to edit mode with the saved memo as draft.
func (d *Detail) StartEditing() {
	if d.record == nil || d.editing {
		return
	}
	d.draft = d.savedMemo()
	d.editing = true
	d.message = ""
}

// EditMemo replaces the editor text. It has no effect while read-only.
func (d *Detail) EditMemo(text string) {
	if !d.editing {
		return
	}
	d.draft = text
}

// SaveMemo stores the draft. On success the editor turns read-only; on
// failure it stays editing and Message explains what to check.
func (d *Detail) SaveMemo(ctx context.Context) error {
	if d.record == nil {
		return ErrNotLoaded
	}
	mutation, err := d.api.UpdateMemo(ctx, d.id, d.draft)
	if err != nil {
		d.message = MsgMemoSaveFailed
		return err
	}
	d.record.AdminMemo = mutation.AdminMemo
	d.record.UpdatedAt = mutation.UpdatedAt
	d.draft = d.savedMemo()
	d.editing = false
	d.message = MsgMemoSaved
	return nil
}

// CanCancel reports whether editing can be abandoned for a saved memo.
func (d *Detail) CanCancel() bool {
	return d.editing && d.savedMemo() != ""
}

// CancelEdit reverts the draft to the saved memo and leaves edit mode.
func (d *Detail) CancelEdit() bool {
	if !d.CanCancel() {
		return false
	}
	d.draft = d.savedMemo()
	d.editing = false
	d.message = ""
	return true
}

// CanFillTemplate reports whether the outline may be inserted.
func (d *Detail) CanFillTemplate() bool {
	return d.editing && strings.TrimSpace(d.draft) == ""
}

// FillTemplate inserts MemoTemplate into a blank draft.
func (d *Detail) FillTemplate() bool {
	if !d.CanFillTemplate() {
		return false
	}
	d.draft = MemoTemplate
	return true
}

func (d *Detail) ID() string                       { return d.id }
func (d *Detail) State() DetailState               { return d.state }
func (d *Detail) Reservation() *models.Reservation { return d.record }
func (d *Detail) Editing() bool                    { return d.editing }
func (d *Detail) MemoDraft() string                { return d.draft }
func (d *Detail) Message() string                  { return d.message }

func (d *Detail) savedMemo() string {
	if d.record == nil {
		return ""
	}
	return models.StringValue(d.record.AdminMemo)
}
