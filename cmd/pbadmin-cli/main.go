package main

import (
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/cmd"
	"github.com/vcslav-v/pb-admin/lib/osutil"
)

func main() {
	cmd.ExecuteContext(osutil.SignalContext())
}
