// Package main is the entry point for the LexFisc knowledge service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/lexfisc/lexfisc/cmd/knowledge/app"
)

func main() {
	app.NewApp().Run()
}
