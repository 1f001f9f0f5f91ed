package pbadmin

import "github.com/vcslav-v/pb-admin/lib/telemetry"

var tracer = telemetry.Tracer("pbadmin.lib.pbadmin")
