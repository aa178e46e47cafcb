// cmd/filedepot/main.go
package main

import (
	"context"

	"filedepot/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	app.Run(context.Background(), bootstrap.Hooks)
}
