package main

// Version can be set during build with -ldflags
var version = "dev"

func main() {
	Execute(version)
}
