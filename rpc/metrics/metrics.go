package metrics

import (
	"net/http"

	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/transport"
)

// IMetrics receives events from the server. All methods are called from the
// event loop goroutine and must not block.
type IMetrics interface {
	// Command is called once per handled request
	Command(cmd common.CommandType)
	ConnOpened()
	ConnClosed(reason transport.CloseReason)
	// Expired is called with the number of keys removed by a timer sweep
	Expired(n int)
	// KeySpace reports the number of live keys
	KeySpace(n int)
}

// IExporter is a metrics sink that can be scraped over HTTP
type IExporter interface {
	IMetrics
	Handler() http.Handler
}

// NoopMetrics is a drop-in IMetrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) Command(common.CommandType)       {}
func (NoopMetrics) ConnOpened()                      {}
func (NoopMetrics) ConnClosed(transport.CloseReason) {}
func (NoopMetrics) Expired(int)                      {}
func (NoopMetrics) KeySpace(int)                     {}

var _ IMetrics = NoopMetrics{}
