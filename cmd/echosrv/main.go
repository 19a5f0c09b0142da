package main

import (
	echosrv "github.com/0xa1bed0/echosrv/internal/apps/echosrv/cmds"
	"github.com/0xa1bed0/echosrv/internal/logs"
	"github.com/0xa1bed0/echosrv/internal/runtime"
)

func main() {
	logs.SetComponent("echosrv")

	var execErr error

	rt := runtime.New()
	defer rt.Finalize("echosrv", "Type 'echosrv help' to get help.", &execErr)

	execErr = echosrv.Execute(rt)
}
