package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"signalshub/internal/client"
	"signalshub/internal/output"
)

type recorded struct {
	Method string
	Path   string
	Key    string
	Body   map[string]any
}

type fakeAPI struct {
	mu   sync.Mutex
	reqs []recorded
	srv  *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Key: r.Header.Get("Idempotency-Key")}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.Body)
		}
		f.mu.Lock()
		f.reqs = append(f.reqs, rec)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) last(t *testing.T) recorded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.reqs)
	return f.reqs[len(f.reqs)-1]
}

func (f *fakeAPI) ctx(out io.Writer) Context {
	return Context{
		Output: output.FormatJSON,
		Stdout: out,
		NewKey: func() string { return "generated-key" },
		HTTP:   &client.Client{BaseURL: f.srv.URL + "/prefix", Token: "tok", HTTP: f.srv.Client()},
	}
}

func TestDispatch_Routes(t *testing.T) {
	cases := []struct {
		args   []string
		method string
		path   string
	}{
		{[]string{"signals", "list"}, http.MethodGet, "/prefix/signals"},
		{[]string{"signals", "list", "--analyst", "9"}, http.MethodGet, "/prefix/analyst/9/signals"},
		{[]string{"signals", "get", "sig-1"}, http.MethodGet, "/prefix/signals/sig-1"},
		{[]string{"purchase", "list", "42"}, http.MethodGet, "/prefix/purchases/42"},
		{[]string{"purchase", "check", "42", "sig-1"}, http.MethodGet, "/prefix/check-purchase/42/sig-1"},
		{[]string{"analyst", "list"}, http.MethodGet, "/prefix/analysts"},
		{[]string{"analyst", "get", "9"}, http.MethodGet, "/prefix/analyst/9"},
		{[]string{"analyst", "rebuild", "9"}, http.MethodPost, "/prefix/analyst/9/rebuild"},
		{[]string{"notifications", "list", "7"}, http.MethodGet, "/prefix/notifications/7"},
		{[]string{"follow", "list", "7"}, http.MethodGet, "/prefix/follows/7"},
		{[]string{"follow", "remove", "--user", "7", "--analyst", "9"}, http.MethodPost, "/prefix/unfollow"},
		{[]string{"sweep"}, http.MethodGet, "/prefix/check-expired-signals"},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			api := newFakeAPI(t)
			var out bytes.Buffer
			require.NoError(t, Dispatch(api.ctx(&out), tc.args))
			got := api.last(t)
			require.Equal(t, tc.method, got.Method)
			require.Equal(t, tc.path, got.Path)
			require.Contains(t, out.String(), `"success": true`)
		})
	}
}

func TestPurchaseBuy_SendsBodyAndKey(t *testing.T) {
	api := newFakeAPI(t)
	var out bytes.Buffer
	err := Dispatch(api.ctx(&out), []string{"purchase", "buy", "--signal", "sig-1", "--buyer", "42", "--amount", "0.050", "--tx", "0xabc"})
	require.NoError(t, err)

	got := api.last(t)
	require.Equal(t, "/prefix/purchase", got.Path)
	require.Equal(t, "generated-key", got.Key)
	require.Equal(t, "sig-1", got.Body["signalId"])
	require.EqualValues(t, 42, got.Body["buyerFid"])
	require.Equal(t, "0.05", got.Body["amount"])
	require.Equal(t, "0xabc", got.Body["transactionHash"])

	err = Dispatch(api.ctx(&out), []string{"purchase", "buy", "--signal", "sig-1", "--buyer", "42", "--amount", "0.05", "--idempotency-key", "mine"})
	require.NoError(t, err)
	require.Equal(t, "mine", api.last(t).Key)
}

func TestRate_Validation(t *testing.T) {
	api := newFakeAPI(t)
	var out bytes.Buffer
	c := api.ctx(&out)

	require.Error(t, Dispatch(c, []string{"rate", "quick", "--purchase", "p1", "--stars", "6"}))
	require.Error(t, Dispatch(c, []string{"rate", "final", "--purchase", "p1", "--verdict", "maybe"}))
	require.Error(t, Dispatch(c, []string{"purchase", "buy", "--signal", "s", "--buyer", "1", "--amount", "-1"}))

	require.NoError(t, Dispatch(c, []string{"rate", "final", "--purchase", "p1", "--verdict", "Success"}))
	got := api.last(t)
	require.Equal(t, "/prefix/rate-final", got.Path)
	require.Equal(t, "success", got.Body["rating"])
}

func TestSignalsCreate_FromStdin(t *testing.T) {
	api := newFakeAPI(t)
	var out bytes.Buffer
	c := api.ctx(&out)
	c.Stdin = strings.NewReader(`{"id":"sig-9","analystFid":9,"price":0.1}`)
	require.NoError(t, Dispatch(c, []string{"signals", "create"}))

	got := api.last(t)
	require.Equal(t, "/prefix/signals", got.Path)
	sig := got.Body["signal"].(map[string]any)
	require.Equal(t, "sig-9", sig["id"])
}

func TestNotificationsRead_IDs(t *testing.T) {
	api := newFakeAPI(t)
	var out bytes.Buffer
	require.NoError(t, Dispatch(api.ctx(&out), []string{"notifications", "read", "7", "--ids", "a, b,,"}))
	got := api.last(t)
	require.Equal(t, "/prefix/notifications/7/read", got.Path)
	require.Equal(t, []any{"a", "b"}, got.Body["ids"])
}

func TestDispatch_Unknown(t *testing.T) {
	require.Error(t, Dispatch(Context{}, []string{"bogus"}))
	require.Error(t, Dispatch(Context{}, []string{"signals", "bogus"}))
	require.Error(t, Dispatch(Context{}, nil))
}
