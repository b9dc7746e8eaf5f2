// Package placeholder resolves {NAME}-style tokens in output path
// templates at write time.
//
// Global placeholders are always available:
//
//	{HOME}  user home directory
//	{CWD}   current working directory
//	{TMP}   temp directory
//
// When a current input path is in scope, these are available as well:
//
//	{INPUT_PATH}         directory holding the input
//	{INPUT_NAMEEXT}      input file name with extension
//	{INPUT_NAMENOEXT}    input file name without extension
//	{INPUT_EXT}          input extension, including the dot
//	{INPUT_PARENT_PATH}  path of the input directory's parent
//	{INPUT_PARENT_NAME}  name of the input's directory
//
// Unknown tokens are left untouched.
package placeholder

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand resolves the global placeholders in a template.
func Expand(template string) string {
	return ExpandWith(template, "")
}

// ExpandWith resolves both the global and, when input is non-empty,
// the input-derived placeholders in a template.
func ExpandWith(template, input string) string {
	if !strings.Contains(template, "{") {
		return template
	}

	pairs := []string{
		"{CWD}", cwd(),
		"{TMP}", os.TempDir(),
	}
	if home, err := os.UserHomeDir(); err == nil {
		pairs = append(pairs, "{HOME}", home)
	}

	if input != "" {
		dir := filepath.Dir(input)
		base := filepath.Base(input)
		ext := filepath.Ext(input)
		pairs = append(pairs,
			"{INPUT_PATH}", dir,
			"{INPUT_NAMEEXT}", base,
			"{INPUT_NAMENOEXT}", strings.TrimSuffix(base, ext),
			"{INPUT_EXT}", ext,
			"{INPUT_PARENT_PATH}", filepath.Dir(dir),
			"{INPUT_PARENT_NAME}", filepath.Base(dir),
		)
	}

	return strings.NewReplacer(pairs...).Replace(template)
}

func cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
