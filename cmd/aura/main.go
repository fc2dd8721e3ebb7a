package main

import (
	"fmt"
	"os"

	"github.com/MrEthical07/aura/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "aura: %v\n", err)
		os.Exit(1)
	}
}
