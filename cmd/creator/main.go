package main

import "github.com/jrsteele09/creator-relay/cmd/creator/cmd"

func main() {
	cmd.Execute()
}
