//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const registryDB = "registry/registry.db"

// Seed imports a YAML registry file into registry/registry.db.
func Seed(file string) error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath(), "registry", "import", file, "--registry-db", registryDB)
}

// Mine runs the pipeline over the IDs in idsFile against the seeded
// registry and stores the results in the review database.
func Mine(idsFile string) error {
	mg.Deps(Build, Init)
	if err := sh.RunV(binPath(), "mine",
		"--ids-file", idsFile,
		"--registry-db", registryDB,
		"--out", "review",
		"--store", "review-store",
	); err != nil {
		return err
	}
	fmt.Println("Review feed:", filepath.Join("review", "tools.csv"))
	return nil
}
