// roadguard sets up a road-warrior WireGuard server and adds clients to it.
package main

import (
	"fmt"
	"os"

	"roadguard/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if hint := models.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}
