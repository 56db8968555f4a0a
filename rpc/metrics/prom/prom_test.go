package prom

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/transport"
)

func TestAdapter(t *testing.T) {
	a := New(nil, "test")

	a.Command(common.CmdSet)
	a.Command(common.CmdExpire)
	a.Command(common.CmdExpire)
	a.ConnOpened()
	a.ConnClosed(transport.CloseProtocolError)
	a.ConnOpened()
	a.Expired(5)
	a.KeySpace(7)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, line := range []string{
		`test_commands_total{command="set"} 1`,
		`test_commands_total{command="expire"} 2`,
		`test_connections_opened_total 2`,
		`test_connections_closed_total{reason="protocol_error"} 1`,
		`test_connections 1`,
		`test_keys_expired_total 5`,
		`test_keys 7`,
	} {
		if !strings.Contains(body, line+"\n") {
			t.Errorf("missing %q in\n%s", line, body)
		}
	}
}
