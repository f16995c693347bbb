package main

import (
	api "Stitchup"
)

func main() {
	api.Run()
}
