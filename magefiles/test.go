//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every Go test with the race detector.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}

// Runs the tests of one package, e.g. mage test:package ./engine/renderer.
func (Test) Package(pkg string) error {
	_, err := executeCmd("go", withArgs("test", "-count=1", pkg), withStream())
	return err
}
