package handlers

import (
	"net/http"
	"testing"

	"github.com/petabencana/sitioss-server/internal/domain"
)

func TestFloodState_SetListClear(t *testing.T) {
	e := newEnv(t)
	e.seedArea(t, 1, "ID-JK")
	e.seedArea(t, 2, "ID-JK")
	e.seedArea(t, 3, "ID-JB")

	w := e.do(t, http.MethodPut, "/floods/1?username=ops", SetStateRequest{State: 3}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("set: %d %s", w.Code, w.Body.String())
	}
	if got := decode[AreaStateResponse](t, w); got.LocalAreaID != 1 || got.State == nil || *got.State != 3 || !got.Updated {
		t.Fatalf("set body: %+v", got)
	}

	type row struct {
		AreaID   int64  `json:"area_id"`
		State    *int   `json:"state"`
		Severity string `json:"severity"`
	}
	rows := result[[]row](t, e.do(t, http.MethodGet, "/floods?admin=ID-JK", nil, nil))
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	for _, r := range rows {
		switch r.AreaID {
		case 1:
			if r.State == nil || *r.State != 3 || r.Severity != "Moderate" {
				t.Fatalf("area 1: %+v", r)
			}
		case 2:
			if r.State != nil || r.Severity != "" {
				t.Fatalf("area 2 has no state: %+v", r)
			}
		}
	}
	if rows := result[[]row](t, e.do(t, http.MethodGet, "/floods?minimum_state=3", nil, nil)); len(rows) != 1 || rows[0].AreaID != 1 {
		t.Fatalf("minimum_state rows = %+v", rows)
	}

	states := result[[]domain.AreaState](t, e.do(t, http.MethodGet, "/floods/states", nil, nil))
	if len(states) != 1 || states[0].AreaID != 1 {
		t.Fatalf("states = %+v", states)
	}

	w = e.do(t, http.MethodDelete, "/floods/1?username=ops", nil, nil)
	if got := decode[AreaStateResponse](t, w); w.Code != http.StatusOK || got.State != nil || !got.Updated {
		t.Fatalf("clear: %d %s", w.Code, w.Body.String())
	}

	log := result[[]domain.RemStatusLog](t, e.do(t, http.MethodGet, "/floods/1/log", nil, nil))
	if len(log) != 2 || log[0].State == nil || log[1].State != nil || log[1].Username != "ops" {
		t.Fatalf("log = %+v", log)
	}

	places := result[[]domain.LocalArea](t, e.do(t, http.MethodGet, "/floods/places?admin=ID-JB", nil, nil))
	if len(places) != 1 || places[0].PKey != 3 {
		t.Fatalf("places = %+v", places)
	}
}

func TestFloodState_Rejections(t *testing.T) {
	e := newEnv(t)
	e.seedArea(t, 1, "ID-JK")

	cases := map[string]struct {
		method, target string
		body           any
		status         int
	}{
		"no username":   {http.MethodPut, "/floods/1", SetStateRequest{State: 2}, http.StatusBadRequest},
		"bad state":     {http.MethodPut, "/floods/1?username=ops", SetStateRequest{State: 9}, http.StatusBadRequest},
		"missing state": {http.MethodPut, "/floods/1?username=ops", map[string]any{}, http.StatusBadRequest},
		"bad id":        {http.MethodPut, "/floods/abc?username=ops", SetStateRequest{State: 2}, http.StatusBadRequest},
		"unknown area":  {http.MethodPut, "/floods/99?username=ops", SetStateRequest{State: 2}, http.StatusNotFound},
		"clear unknown": {http.MethodDelete, "/floods/99?username=ops", nil, http.StatusNotFound},
		"bad region":    {http.MethodGet, "/floods?admin=XX", nil, http.StatusBadRequest},
		"bad minimum":   {http.MethodGet, "/floods?minimum_state=high", nil, http.StatusBadRequest},
		"minimum range": {http.MethodGet, "/floods/states?minimum_state=7", nil, http.StatusBadRequest},
		"bad format":    {http.MethodGet, "/floods/places?format=xml", nil, http.StatusBadRequest},
	}
	for name, tc := range cases {
		if w := e.do(t, tc.method, tc.target, tc.body, nil); w.Code != tc.status {
			t.Fatalf("%s: status %d, want %d (%s)", name, w.Code, tc.status, w.Body.String())
		}
	}

	w := e.do(t, http.MethodGet, "/floods/places?format=xml", nil, nil)
	if decode[ErrorResponse](t, w).Code != ErrCodeUnsupportedFormat {
		t.Fatalf("format code: %s", w.Body.String())
	}
}

func TestFloodStates_ETag(t *testing.T) {
	e := newEnv(t)
	e.seedArea(t, 1, "ID-JK")

	w := e.do(t, http.MethodGet, "/floods/states?admin=ID-JK", nil, nil)
	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || etag == "" {
		t.Fatalf("first: %d etag=%q", w.Code, etag)
	}
	w = e.do(t, http.MethodGet, "/floods/states?admin=ID-JK", nil, map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified || w.Body.Len() != 0 {
		t.Fatalf("conditional: %d %q", w.Code, w.Body.String())
	}

	e.do(t, http.MethodPut, "/floods/1?username=ops", SetStateRequest{State: 2}, nil)
	w = e.do(t, http.MethodGet, "/floods/states?admin=ID-JK", nil, map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusOK || w.Header().Get("ETag") == etag {
		t.Fatalf("after change: %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
}
