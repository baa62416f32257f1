package main

import (
	"github.com/betselot/gojo-bookings/cmd"
)

func main() {
	cmd.Execute()
}
