package main

import "github.com/readystackgo/rsgo/cmd/rsgoctl"

// version can be set during build with -ldflags
var version = "dev"

func main() {
	rsgoctl.SetVersion(version)
	rsgoctl.Execute()
}
