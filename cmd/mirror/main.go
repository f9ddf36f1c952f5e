package main

import (
	"go.uber.org/fx"

	"github.com/campuscode/canteen/internal/app"
)

func main() {
	fx.New(app.Mirror).Run()
}
