package main

import "github.com/oshokin/paper-updater/cmd/paper-announce/cmd"

func main() {
	cmd.Execute()
}
