package main

import "github.com/oshokin/selenium-launcher/cmd/selenium-launcher/cmd"

func main() {
	cmd.Execute()
}
