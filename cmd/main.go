package main

import (
	"github.com/asgard-driver/cmd/driver"
)

func main() {
	driver.Execute()
}
