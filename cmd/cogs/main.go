// cmd/cogs/main.go
package main

import (
	"cogs/internal/app"
	"cogs/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
