package loaders

import (
	"errors"
	"fmt"
)

const spirvMagic uint32 = 0x07230203

// ErrInvalidBytecode is returned for files that are not SPIR-V modules.
var ErrInvalidBytecode = errors.New("invalid SPIR-V bytecode")

type ShaderLoader struct {
	BinaryLoader
}

/** @brief Reads a compiled shader stage and checks its SPIR-V header. */
func (sl *ShaderLoader) Load(path string) ([]byte, error) {
	data, err := sl.BinaryLoader.Load(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateBytecode(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

func ValidateBytecode(data []byte) error {
	if len(data) < 4 || len(data)%4 != 0 {
		return fmt.Errorf("%w: size %d is not a whole number of words", ErrInvalidBytecode, len(data))
	}
	if magic := BytesToBytecode(data[:4])[0]; magic != spirvMagic {
		return fmt.Errorf("%w: magic 0x%08x", ErrInvalidBytecode, magic)
	}
	return nil
}
