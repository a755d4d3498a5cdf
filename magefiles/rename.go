//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Preview builds the CLI and lists what a recursive rename of $OCR_DIR
// (default: the current directory) would change, without renaming anything.
func Preview() error {
	mg.Deps(Build)

	dir := os.Getenv("OCR_DIR")
	if dir == "" {
		dir = "."
	}
	fmt.Printf("[preview] Dry run over %s\n", dir)
	return sh.RunV("./"+binDir+"/"+binName, "rename", dir, "--recursive", "--dry-run")
}
