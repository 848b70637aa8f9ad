package main

import "github.com/OpenTraceLab/OpenTracePerf/cmd/perfroute/cmd"

func main() {
	cmd.Execute()
}
