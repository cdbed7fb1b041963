package content_service

import "github.com/AnishMulay/sizefs/internal/pattern"

const (
	PresetZeros    = "zeros"
	PresetOnes     = "ones"
	PresetAlphaNum = "alpha_num"
)

// PresetFiles are created in every preset directory at startup.
var PresetFiles = []string{"100K", "4M", "4M-1B", "4M+1B"}

// Presets returns the built-in directories and their pattern sets.
func Presets() map[string]PatternSet {
	ones := DefaultPatternSet()
	ones.Filler = pattern.MustCompile("1")

	alphaNum := DefaultPatternSet()
	alphaNum.Filler = pattern.MustCompile("[a-zA-Z0-9]")

	return map[string]PatternSet{
		PresetZeros:    DefaultPatternSet(),
		PresetOnes:     ones,
		PresetAlphaNum: alphaNum,
	}
}
