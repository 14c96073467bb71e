package main

import "github.com/dalimagaadi/kord-app/internal/cli"

func main() {
	cli.Execute()
}
