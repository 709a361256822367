package main

import "github.com/artemshloyda/mediaconverter/internal/cli"

func main() {
	cli.Execute()
}
