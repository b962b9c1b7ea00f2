package main

import (
	"prism.io/infrastructure"
	"prism.io/infrastructure/env"
)

func init() {
	env.LoadEnv()
}

func main() {
	infrastructure.StartServer()
}
