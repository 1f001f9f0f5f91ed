package nova

import (
	"github.com/vcslav-v/pb-admin/lib/restyutil"
	"github.com/vcslav-v/pb-admin/lib/telemetry"
	"go.opentelemetry.io/otel/metric"
)

var tracer = telemetry.Tracer("pbadmin.lib.nova")
var meter = telemetry.Meter("pbadmin.lib.nova")
var requestCounter, _ = meter.Int64Counter(
	"nova.requests",
	metric.WithDescription("requests sent to the panel, by method and status"),
)
var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
