package main

import (
	"os"

	"github.com/RaaSaaR-org/robot-management-system-sub004/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
