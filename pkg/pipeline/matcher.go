package pipeline

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
)

//listInputs lists dir's files with the given extensions, failing with ErrNoInput when there are none
func listInputs(dir string, exts ...string) ([]string, error) {
	files, err := utils.ListFiles(dir, exts...)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, errors.Wrapf(ErrNoInput, "no %v files found in '%s'", exts, dir)
	}

	return files, nil
}

//FindImage returns the frame a result named base was produced from, trying '.jpg' before '.png'
func FindImage(imagesDir, base string) (string, bool) {
	for _, ext := range utils.ImageExts {
		path := filepath.Join(imagesDir, base+ext)
		if utils.FileExists(path) {
			return path, true
		}
	}

	return "", false
}

//ResultPath is where the inference result for image is written: "<dir>/<base>.json"
func ResultPath(dir, image string) string {
	return filepath.Join(dir, utils.BaseName(image)+utils.ResultExt)
}

//AnnotatedPath is where the drawn frame for result is written: "<dir>/<base>.jpg" whatever the source extension
func AnnotatedPath(dir, result string) string {
	return filepath.Join(dir, utils.BaseName(result)+utils.AnnotatedExt)
}
