package main

import "github.com/example/kiosk-booking/cmd"

func main() {
	cmd.Execute()
}
