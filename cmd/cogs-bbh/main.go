// cmd/cogs-bbh/main.go
package main

import (
	"cogs/internal/appshell"
	"cogs/internal/bbhapp"
)

func main() { appshell.Main(bbhapp.RunContext) }
