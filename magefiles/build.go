//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const (
	shaderSrcDir = "assets/shaders"
	shaderBinDir = "assets/shaders/bin"
)

// Compiles every GLSL stage under assets/shaders to SPIR-V. The output keeps
// the stage name, so texDecal-vs.vert becomes bin/texDecal-vs.spv.
func (Build) Shaders() error {
	return buildShaders()
}

// Tidies the module and builds every package.
func (Build) All() error {
	mg.Deps(Build.Shaders)
	if err := goTidy(); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("build", "./..."), withStream())
	return err
}

func buildShaders() error {
	if err := os.MkdirAll(shaderBinDir, 0o755); err != nil {
		return err
	}
	var sources []string
	for _, pattern := range []string{"*.vert", "*.frag"} {
		matches, err := filepath.Glob(filepath.Join(shaderSrcDir, pattern))
		if err != nil {
			return err
		}
		sources = append(sources, matches...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no shader sources found in %s", shaderSrcDir)
	}
	for _, src := range sources {
		name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		out := filepath.Join(shaderBinDir, name+".spv")
		if _, err := executeCmd("glslc", withArgs(src, "-o", out), withStream()); err != nil {
			return err
		}
	}
	return nil
}
