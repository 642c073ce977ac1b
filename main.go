package main

import (
	"github.com/xkilldash9x/sitecheck/cmd"
)

func main() {
	cmd.Execute()
}
