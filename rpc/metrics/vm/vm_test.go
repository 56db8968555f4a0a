package vm

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/transport"
)

func scrape(t *testing.T, e *Exporter) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}

func TestExporter(t *testing.T) {
	e := New("test")

	e.Command(common.CmdGet)
	e.Command(common.CmdGet)
	e.Command(common.CmdUnknown)
	e.ConnOpened()
	e.ConnOpened()
	e.ConnClosed(transport.CloseIdle)
	e.Expired(3)
	e.Expired(0)
	e.KeySpace(42)

	body := scrape(t, e)
	for _, line := range []string{
		`test_commands_total{command="get"} 2`,
		`test_commands_total{command="set"} 0`,
		`test_commands_total{command="unknown"} 1`,
		`test_connections_opened_total 2`,
		`test_connections_closed_total{reason="idle"} 1`,
		`test_connections 1`,
		`test_keys_expired_total 3`,
		`test_keys 42`,
	} {
		if !strings.Contains(body, line+"\n") {
			t.Errorf("missing %q in\n%s", line, body)
		}
	}
}

func TestIndependentSets(t *testing.T) {
	a, b := New("test"), New("test")
	a.Command(common.CmdSet)
	if body := scrape(t, b); !strings.Contains(body, `test_commands_total{command="set"} 0`) {
		t.Errorf("exporters must not share counters:\n%s", body)
	}
}
