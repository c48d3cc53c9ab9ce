package assets

import (
	"path/filepath"
	"strings"
)

type AssetType int

const (
	AssetTypeNone AssetType = iota
	/** @brief Compiled SPIR-V bytecode of one shader stage. */
	AssetTypeShader
	/** @brief Any image format the image loader can decode. */
	AssetTypeImage
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeShader:
		return "shader"
	case AssetTypeImage:
		return "image"
	}
	return "none"
}

func determineAssetType(path string) AssetType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spv":
		return AssetTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return AssetTypeImage
	default:
		return AssetTypeNone
	}
}

/**
 * @brief Returns the name an asset is indexed under. Shader stages drop their
 * extension so that "texDecal-vs.spv" is found as "texDecal-vs"; images keep
 * it.
 */
func assetName(path string, assetType AssetType) string {
	base := filepath.Base(path)
	if assetType == AssetTypeShader {
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base
}
