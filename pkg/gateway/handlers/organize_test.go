package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/braindump-app/api/pkg/core"
	"github.com/braindump-app/api/pkg/gateway/apierror"
	"github.com/braindump-app/api/pkg/organize"
)

type fakeOrganizer struct {
	got  organize.Request
	resp *organize.Response
	err  error
}

func (f *fakeOrganizer) Organize(ctx context.Context, req organize.Request) (*organize.Response, error) {
	f.got = req
	return f.resp, f.err
}

func newOrganizeHandler(f *fakeOrganizer) *OrganizeHandler {
	return &OrganizeHandler{Organizer: f, MaxBodyBytes: 1 << 20}
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) *core.Error {
	t.Helper()
	var env apierror.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v body=%q", err, rec.Body.String())
	}
	if env.Error == nil {
		t.Fatalf("no error in envelope: %q", rec.Body.String())
	}
	return env.Error
}

func TestOrganize_Success(t *testing.T) {
	f := &fakeOrganizer{resp: &organize.Response{
		Tasks: []organize.Task{{Title: "buy milk", Confidence: 0.9, Category: organize.CategoryPersonal}},
		Notes: []string{"remembered the fridge is empty"},
	}}
	rec := postJSON(t, newOrganizeHandler(f), "/v1/organize",
		`{"text":"need milk","todayISO":"2026-08-23","timezone":"Europe/Berlin"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if f.got.Text != "need milk" || f.got.TodayISO != "2026-08-23" || f.got.Timezone != "Europe/Berlin" {
		t.Fatalf("request passed through wrong: %+v", f.got)
	}
	var resp organize.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].Title != "buy milk" {
		t.Fatalf("tasks=%+v", resp.Tasks)
	}
	if !strings.Contains(rec.Body.String(), `"followUps"`) {
		t.Fatalf("missing followUps key: %q", rec.Body.String())
	}
}

func TestOrganize_EmptyText(t *testing.T) {
	rec := postJSON(t, newOrganizeHandler(&fakeOrganizer{}), "/v1/organize",
		`{"text":"   ","todayISO":"2026-08-23"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if coreErr := decodeEnvelope(t, rec); coreErr.Param != "text" {
		t.Fatalf("param=%q", coreErr.Param)
	}
}

func TestOrganize_BadDate(t *testing.T) {
	rec := postJSON(t, newOrganizeHandler(&fakeOrganizer{}), "/v1/organize",
		`{"text":"stuff","todayISO":"08/23/2026"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	coreErr := decodeEnvelope(t, rec)
	if coreErr.Param != "todayISO" || !strings.Contains(coreErr.Message, "YYYY-MM-DD") {
		t.Fatalf("error=%+v", coreErr)
	}
}

func TestOrganize_InvalidJSON(t *testing.T) {
	rec := postJSON(t, newOrganizeHandler(&fakeOrganizer{}), "/v1/organize", `{"text":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestOrganize_ProviderErrorMapped(t *testing.T) {
	f := &fakeOrganizer{err: &core.Error{Type: core.ErrRateLimit, Message: "quota"}}
	rec := postJSON(t, newOrganizeHandler(f), "/v1/organize",
		`{"text":"stuff","todayISO":"2026-08-23"}`)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}
