package main

import "github.com/skinstric/onboarding/cmd"

func main() {
	cmd.Execute()
}
