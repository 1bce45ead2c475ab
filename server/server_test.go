package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-arp/player"
	"go-arp/rig"
)

type silent struct{}

func (silent) NoteOn(note, velocity int) {}
func (silent) NoteOff(note int)          {}

func newTestServer(t *testing.T) (*Server, *rig.Rig) {
	t.Helper()
	r := rig.New(func(spec rig.InstrumentSpec) (player.Instrument, error) {
		return silent{}, nil
	})
	require.NoError(t, r.Load(rig.Spec{
		Instruments: []rig.InstrumentSpec{{Name: "synth"}},
		Arps:        []rig.ArpSpec{{Name: "a", Type: "AscArp", Values: []any{60, 64, 67}}},
	}))
	return New(r), r
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestListAndGet(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/arps", "")
	require.Equal(t, http.StatusOK, w.Code)
	var arps []rig.ArpInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &arps))
	require.Len(t, arps, 1)
	assert.Equal(t, "a", arps[0].Name)
	assert.Equal(t, 3, arps[0].Count)

	w = do(t, s, http.MethodGet, "/switchers", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, s, http.MethodGet, "/clocks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var clocks []rig.ClockInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &clocks))
	require.Len(t, clocks, 1)
	assert.Equal(t, rig.DefaultClockName, clocks[0].Name)

	w = do(t, s, http.MethodGet, "/arps/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, errorOf(t, w), "arps/missing")
}

func TestCreateAndPatchPlayer(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/players", `{"name":"p","instrument":"synth","notes":"arps/a","interval":6,"playing":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, s, http.MethodPatch, "/players/p", `{"interval":12}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPatch, "/players/p", `{"interval":12,"playing":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	var info rig.PlayerInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, int64(12), info.Interval)
	assert.False(t, info.Playing)
}

func TestPatchArpAndClock(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPatch, "/arps/a", `{"values":[1,2]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var info rig.ArpInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, 2, info.Count)

	w = do(t, s, http.MethodPatch, "/clocks/default", `{"tempo":90}`)
	require.Equal(t, http.StatusOK, w.Code)
	var clk rig.ClockInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &clk))
	assert.Equal(t, 90, clk.Tempo)
}

func TestErrorStatuses(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown arp type", http.MethodPost, "/arps", `{"name":"x","type":"Spiral"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/arps", `{`, http.StatusBadRequest},
		{"unknown field", http.MethodPatch, "/arps/a", `{"colour":"red"}`, http.StatusBadRequest},
		{"duplicate", http.MethodPost, "/arps", `{"name":"a","type":"asc"}`, http.StatusConflict},
		{"bad inversion", http.MethodPost, "/arps", `{"name":"x","type":"asc","values":[1,2,3],"inversion":7}`, http.StatusBadRequest},
		{"missing switchee", http.MethodPost, "/switchers", `{"name":"s","type":"Adder","switchee":"arps/none"}`, http.StatusNotFound},
		{"negative octaves", http.MethodPost, "/switchers", `{"name":"s","type":"OctaveArp","switchee":"arps/a","octaves":-1}`, http.StatusBadRequest},
		{"zero interval", http.MethodPatch, "/players/nobody", `{"interval":0}`, http.StatusNotFound},
		{"missing phrase", http.MethodGet, "/recorders/none/phrase", "", http.StatusNotFound},
		{"unknown kind", http.MethodDelete, "/widgets/a", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, errorOf(t, w))
		})
	}
}

func TestDelete(t *testing.T) {
	s, r := newTestServer(t)

	w := do(t, s, http.MethodPost, "/switchers", `{"name":"up","type":"OctaveArp","switchee":"arps/a"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, s, http.MethodDelete, "/arps/a", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodDelete, "/switchers/up", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, http.MethodDelete, "/arps/a", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, r.Arps())
}

func TestRecorderPhrase(t *testing.T) {
	s, r := newTestServer(t)

	w := do(t, s, http.MethodPost, "/recorders", `{"name":"rec"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	in, err := r.Input("rec", "")
	require.NoError(t, err)
	in.NoteOn(60, 90)

	w = do(t, s, http.MethodGet, "/recorders/rec/phrase", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, s, http.MethodPost, "/phraseplayers", `{"name":"loop","recorder":"rec","instrument":"synth"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, s, http.MethodPatch, "/phraseplayers/loop", `{"playing":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	var info rig.PhrasePlayerInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.True(t, info.Playing)
	assert.Equal(t, int64(96), info.Length)
}

func TestSpecEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/spec", "")
	require.Equal(t, http.StatusOK, w.Code)
	var spec rig.Spec
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
	assert.Len(t, spec.Arps, 1)
	assert.Len(t, spec.Instruments, 1)
}
