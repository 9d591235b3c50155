package main

import (
	"github.com/droidsync/droidsync/cmd"
	"github.com/droidsync/droidsync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
