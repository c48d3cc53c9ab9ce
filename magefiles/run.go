//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the testbed, which writes its PNGs to out/.
func (Run) Testbed() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("run", ".", "-out", "out"), withStream())
	return err
}

// Same as Testbed with the Khronos validation layer forced on through the
// loader, whatever vidgfx.toml says.
func (Run) Validated() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go",
		withArgs("run", ".", "-out", "out"),
		withEnv("VK_INSTANCE_LAYERS", "VK_LAYER_KHRONOS_validation"),
		withStream())
	return err
}
